package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxBaseNameLength bounds the file stem so that stem, collision suffix and
// extension stay below the 255 byte limit common to most filesystems.
const maxBaseNameLength = 200

var invalidNameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Card represents a single card record from the catalog.
//
// Card contains the information needed to locate and name its artwork:
//   - ID uniquely identifies the card within the catalog
//   - Name is the display name (not guaranteed unique)
//   - Images lists the artwork blocks in upstream order
//
// Cards are created by the catalog fetcher and are read-only afterwards.
//
// Example:
//
//	card := model.Card{ID: 46986414, Name: "Dark Magician", Images: images}
//	url, ok := card.Images[0].URL(model.VariantSmall)
type Card struct {
	// ID is the numeric identifier of the card, unique within the catalog.
	ID int

	// Name is the display name of the card.
	Name string

	// Images holds every artwork block served for the card.
	// Alternate artworks follow the original one.
	Images []ImageVariant
}

// ImageVariant is one artwork block of a card with its rendition URLs.
//
// An empty string means the rendition is not populated for this block.
type ImageVariant struct {
	Normal  string
	Small   string
	Cropped string
}

// URL returns the URL for the given variant and whether it is populated.
func (iv ImageVariant) URL(v Variant) (string, bool) {
	var url string
	switch v {
	case VariantNormal:
		url = iv.Normal
	case VariantSmall:
		url = iv.Small
	case VariantCropped:
		url = iv.Cropped
	}
	return url, url != ""
}

// BaseName returns the file stem for the card under the given naming scheme.
//
// With NamingByName the display name is sanitized: the characters
// \ / * ? : " < > | are removed and surrounding whitespace is trimmed.
// If nothing usable remains, the numeric ID is used instead.
// With NamingByID the numeric ID is used directly.
//
// Example:
//
//	card := Card{ID: 7, Name: "A/B*C"}
//	card.BaseName(NamingByName) // "ABC"
//	card.BaseName(NamingByID)   // "7"
func (c Card) BaseName(scheme NamingScheme) string {
	if scheme == NamingByName {
		if name := sanitizeFileName(c.Name); name != "" {
			return name
		}
	}
	return strconv.Itoa(c.ID)
}

// String returns a short human-readable description used in logs.
func (c Card) String() string {
	return fmt.Sprintf("%s (#%d)", c.Name, c.ID)
}

// sanitizeFileName removes characters that are reserved on common filesystems.
//
// Removed characters: \ / * ? : " < > |
// Surrounding whitespace is trimmed and overly long names are truncated on a
// rune boundary.
func sanitizeFileName(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if len(name) > maxBaseNameLength {
		cut := maxBaseNameLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.TrimSpace(name[:cut])
	}

	return name
}
