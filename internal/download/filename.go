package download

import (
	"path/filepath"

	ioutils "github.com/handiism/ygo-card-downloader/internal/io"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/spf13/afero"
)

// ImageExtension is the extension of every written image.
const ImageExtension = ".jpg"

// ResolveFilename returns a destination path under outputDir for the card
// that does not collide with an existing file.
//
// The stem comes from the naming scheme; when the natural path is taken an
// incrementing suffix is appended (Name_1.jpg, Name_2.jpg, ...). Nothing is
// overwritten within a run or across runs into the same directory.
//
// Resolution checks the filesystem, so callers must resolve and write one
// card at a time for the guarantee to hold.
func ResolveFilename(fs afero.Fs, card model.Card, scheme model.NamingScheme, outputDir string) (string, error) {
	candidate := filepath.Join(outputDir, card.BaseName(scheme)+ImageExtension)
	path, err := ioutils.UniquePath(fs, candidate)
	if err != nil {
		return "", model.NewError(model.KindWrite, "resolve filename", candidate, err)
	}
	return path, nil
}
