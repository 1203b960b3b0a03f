// Package model defines the core data structures used throughout
// the ygo-card-downloader application.
//
// # Card
//
// Card represents a catalog record with its artwork blocks:
//
//	url, ok := card.Images[0].URL(model.VariantNormal)
//	name := card.BaseName(model.NamingByName) // sanitized file stem
//
// # Download Configuration
//
// DownloadConfig is the immutable configuration of a run:
//
//	cfg := model.DownloadConfig{
//	    Variant:   model.VariantSmall,
//	    Naming:    model.NamingByName,
//	    OutputDir: "/home/user/Pictures/cards",
//	}
//	err := cfg.Validate() // returns a KindConfig *Error
//
// # Errors
//
// Failures are classified with an ErrorKind (network, decode, write,
// config) and can be matched with errors.Is against ErrNetwork, ErrDecode,
// ErrWrite and ErrConfig.
package model
