package model

import (
	"fmt"
	"strings"
)

// Variant selects which image rendition of a card is downloaded.
type Variant string

const (
	// VariantNormal is the full size card image.
	VariantNormal Variant = "normal"

	// VariantSmall is the thumbnail rendition.
	VariantSmall Variant = "small"

	// VariantCropped is the artwork only, without the card frame.
	VariantCropped Variant = "cropped"
)

// Variants lists every supported variant in display order.
var Variants = []Variant{VariantNormal, VariantSmall, VariantCropped}

// ParseVariant converts a user supplied string into a Variant.
//
// Besides the canonical keys it accepts the upstream JSON field names
// (image_url, image_url_small, image_url_cropped).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "image_url":
		return VariantNormal, nil
	case "small", "image_url_small":
		return VariantSmall, nil
	case "cropped", "image_url_cropped":
		return VariantCropped, nil
	}
	return "", NewConfigError(fmt.Sprintf("unknown image variant %q", s))
}

// Next returns the variant following v, wrapping around.
func (v Variant) Next() Variant {
	for i, candidate := range Variants {
		if candidate == v {
			return Variants[(i+1)%len(Variants)]
		}
	}
	return VariantNormal
}

// NamingScheme determines how destination filenames are derived.
type NamingScheme string

const (
	// NamingByName names files after the sanitized card name.
	NamingByName NamingScheme = "by-name"

	// NamingByID names files after the numeric card ID.
	NamingByID NamingScheme = "by-id"
)

// ParseNamingScheme converts a user supplied string into a NamingScheme.
func ParseNamingScheme(s string) (NamingScheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "by-name", "name":
		return NamingByName, nil
	case "by-id", "id":
		return NamingByID, nil
	}
	return "", NewConfigError(fmt.Sprintf("unknown naming scheme %q", s))
}

// Size is a target pixel size for resizing.
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DownloadConfig is the immutable configuration of a single run.
//
// Example:
//
//	cfg := DownloadConfig{
//	    Variant:   VariantCropped,
//	    Resize:    &Size{Width: 421, Height: 614},
//	    Naming:    NamingByID,
//	    OutputDir: "/home/user/Pictures/cards",
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
type DownloadConfig struct {
	// Variant is the image rendition to fetch for each card.
	Variant Variant

	// Resize is the exact output size. Nil keeps the source dimensions.
	Resize *Size

	// Naming selects how destination filenames are derived.
	Naming NamingScheme

	// OutputDir is the destination directory. It is created if missing.
	OutputDir string
}

// Validate checks the configuration and returns a config error describing
// the first problem found.
func (c DownloadConfig) Validate() error {
	switch c.Variant {
	case VariantNormal, VariantSmall, VariantCropped:
	default:
		return NewConfigError(fmt.Sprintf("unknown image variant %q", c.Variant))
	}

	switch c.Naming {
	case NamingByName, NamingByID:
	default:
		return NewConfigError(fmt.Sprintf("unknown naming scheme %q", c.Naming))
	}

	if strings.TrimSpace(c.OutputDir) == "" {
		return NewConfigError("output directory is required")
	}

	if c.Resize != nil && (c.Resize.Width <= 0 || c.Resize.Height <= 0) {
		return NewConfigError(fmt.Sprintf("invalid resize dimensions %s: width and height must be positive", c.Resize))
	}

	return nil
}
