// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Directory creation
//   - Collision-free destination paths (name, name_1, name_2, ...)
//   - Atomic file writing through a temporary file and rename
//   - Image decoding, exact resizing and JPEG encoding
//
// # File Operations
//
//	fs := afero.NewOsFs()
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir(fs, "/path/to/cards")
//
//	// Pick a path that does not overwrite anything
//	path, err := ioutils.UniquePath(fs, "/path/to/cards/Kuriboh.jpg")
//
//	// Write all or nothing
//	err = ioutils.WriteFileAtomic(fs, path, data)
//
// # Image Processing
//
// The ImageService handles artwork manipulation:
//
//	svc := ioutils.NewImageService(ioutils.FilterLanczos, 90)
//
//	img, _, _ := svc.Decode(data)
//	img = svc.Resize(img, 168, 246)
//	jpeg, _ := svc.EncodeJPEG(img)
package ioutils
