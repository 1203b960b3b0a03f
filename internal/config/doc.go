// Package config provides configuration management for ygo-card-downloader.
//
// This package handles:
//   - Loading settings from a config file, environment variables and .env
//   - Saving settings to a file
//   - Default configuration values
//   - Validation and conversion to model.DownloadConfig
//   - Logger construction from the logging settings
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Downloads normal size images to ~/Pictures/YGO Cards
//	// Files named after the card, no resizing
//	// 100ms pause between image requests
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// Every key can be overridden from the environment with the YGODL_ prefix,
// for example YGODL_VARIANT=cropped or YGODL_REQUEST_DELAY=250ms.
//
// # Saving Settings
//
//	settings.Variant = "small"
//	err := settings.Save("/path/to/config.json")
//
// # Building a Run
//
//	cfg, err := settings.ToDownloadConfig()
//	if errors.Is(err, model.ErrConfig) {
//	    // invalid resize dimensions, empty output directory, ...
//	}
package config
