package download

import (
	"context"

	"github.com/handiism/ygo-card-downloader/internal/http"
	ioutils "github.com/handiism/ygo-card-downloader/internal/io"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/spf13/afero"
)

// ImageTranscoder downloads an image and stores it at a destination path.
type ImageTranscoder interface {
	Transcode(ctx context.Context, url, destPath string, resizeTo *model.Size) error
}

// Transcoder downloads card images, optionally resizes them and writes
// them as JPEG regardless of the source format.
//
// Each stage reports a distinct error kind:
//   - KindNetwork: the image could not be fetched
//   - KindDecode: the body is not a decodable image
//   - KindWrite: encoding or writing the destination failed
//
// Writes are atomic, so a failed transcode never leaves a destination file.
//
// Example:
//
//	t := NewTranscoder(client, ioutils.NewImageService(ioutils.FilterLanczos, 90), afero.NewOsFs())
//	err := t.Transcode(ctx, url, "/cards/Kuriboh.jpg", &model.Size{Width: 168, Height: 246})
type Transcoder struct {
	client *http.Client
	images *ioutils.ImageService
	fs     afero.Fs
}

// NewTranscoder creates a new Transcoder.
func NewTranscoder(client *http.Client, images *ioutils.ImageService, fs afero.Fs) *Transcoder {
	return &Transcoder{
		client: client,
		images: images,
		fs:     fs,
	}
}

// Transcode fetches url, decodes it, resizes it to exactly resizeTo when
// given and writes it to destPath.
func (t *Transcoder) Transcode(ctx context.Context, url, destPath string, resizeTo *model.Size) error {
	data, err := t.client.DownloadBytes(ctx, url)
	if err != nil {
		return model.NewError(model.KindNetwork, "download image", url, err)
	}

	img, _, err := t.images.Decode(data)
	if err != nil {
		return model.NewError(model.KindDecode, "decode image", url, err)
	}

	if resizeTo != nil {
		img = t.images.Resize(img, resizeTo.Width, resizeTo.Height)
	}

	out, err := t.images.EncodeJPEG(img)
	if err != nil {
		return model.NewError(model.KindWrite, "encode image", destPath, err)
	}

	if err := ioutils.WriteFileAtomic(t.fs, destPath, out); err != nil {
		return model.NewError(model.KindWrite, "write image", destPath, err)
	}

	return nil
}
