package ioutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// maxCollisionSuffix bounds the search for a free filename.
const maxCollisionSuffix = 100000

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned. An existing
// regular file at path is an error.
//
// Example:
//
//	err := EnsureDir(fs, "/home/user/Pictures/cards")
func EnsureDir(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(path, 0755); err != nil {
		return err
	}

	info, err := fs.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// UniquePath returns path if nothing exists there yet, otherwise the first
// free candidate of the form stem_N.ext with N = 1, 2, ...
//
// Example:
//
//	// "Kuriboh.jpg" and "Kuriboh_1.jpg" already exist
//	p, _ := UniquePath(fs, "/cards/Kuriboh.jpg") // "/cards/Kuriboh_2.jpg"
func UniquePath(fs afero.Fs, path string) (string, error) {
	exists, err := pathExists(fs, path)
	if err != nil || !exists {
		return path, err
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for n := 1; n <= maxCollisionSuffix; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		exists, err := pathExists(fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free filename for %s after %d attempts", path, maxCollisionSuffix)
}

// WriteFileAtomic writes data to path so that the destination either holds
// the complete content or does not exist.
//
// Data is written to a temporary file in the destination directory, synced
// and then renamed over path. On any failure the temporary file is removed.
//
// Example:
//
//	err := WriteFileAtomic(fs, "/cards/46986414.jpg", jpegBytes)
func WriteFileAtomic(fs afero.Fs, path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, 0644); err != nil {
		return err
	}

	return fs.Rename(tmpName, path)
}

func pathExists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
