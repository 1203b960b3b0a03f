package download

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/handiism/ygo-card-downloader/internal/config"
	"github.com/handiism/ygo-card-downloader/internal/http"
	ioutils "github.com/handiism/ygo-card-downloader/internal/io"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/handiism/ygo-card-downloader/internal/ygoprodeck"
	"github.com/spf13/afero"
)

// CatalogFetcher retrieves the full card catalog.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context) ([]model.Card, error)
}

// Manager coordinates card downloads.
//
// It validates the configuration, prepares the output directory and starts
// a Task that fetches the catalog and runs the Processor on its own
// goroutine.
type Manager struct {
	fetcher   CatalogFetcher
	processor *Processor
	fs        afero.Fs
	log       *slog.Logger
}

// NewManager creates a new download Manager from settings, writing to the
// operating system filesystem.
func NewManager(settings *config.Settings, log *slog.Logger) (*Manager, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	filter, err := ioutils.ParseResizeFilter(settings.ResizeFilter)
	if err != nil {
		return nil, model.NewConfigError(err.Error())
	}

	fs := afero.NewOsFs()

	catalogClient := http.NewClient(
		http.WithTimeout(settings.CatalogTimeout),
		http.WithUserAgent(settings.UserAgent),
	)
	imageClient := http.NewClient(
		http.WithTimeout(settings.ImageTimeout),
		http.WithUserAgent(settings.UserAgent),
		http.WithMaxBytes(settings.MaxImageBytes),
	)

	fetcher := ygoprodeck.NewFetcher(catalogClient, settings.CatalogURL, log)
	transcoder := NewTranscoder(imageClient, ioutils.NewImageService(filter, settings.JPEGQuality), fs)
	processor := NewProcessor(transcoder, fs, settings.RequestDelay, log)

	return NewManagerWith(fetcher, processor, fs, log), nil
}

// NewManagerWith creates a Manager from explicit collaborators.
func NewManagerWith(fetcher CatalogFetcher, processor *Processor, fs afero.Fs, log *slog.Logger) *Manager {
	return &Manager{
		fetcher:   fetcher,
		processor: processor,
		fs:        fs,
		log:       log.With(slog.String("component", "manager")),
	}
}

// Start validates cfg, creates the output directory and starts a run.
//
// Configuration problems are returned here as KindConfig errors and no run
// is started. Everything after that, including a failed catalog fetch, is
// reported through the task's events.
//
// ctx is a hard stop for the task; use Task.Cancel for cooperative
// cancellation between cards.
func (m *Manager) Start(ctx context.Context, cfg model.DownloadConfig) (*Task, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ioutils.EnsureDir(m.fs, cfg.OutputDir); err != nil {
		m.log.Error("Cannot create output directory", slog.String("dir", cfg.OutputDir), slog.Any("error", err))
		return nil, model.NewError(model.KindConfig, "create output directory", cfg.OutputDir, err)
	}

	task := newTask(uuid.NewString(), cfg)
	m.log.Info("Starting download task", slog.String("run_id", task.ID()), slog.String("output_dir", cfg.OutputDir))

	go task.run(ctx, m.fetcher, m.processor, m.log.With(slog.String("run_id", task.ID())))

	return task, nil
}

// Run starts a task and blocks until it finishes, forwarding every event
// to onEvent when it is not nil.
func (m *Manager) Run(ctx context.Context, cfg model.DownloadConfig, onEvent func(Event)) (model.RunResult, error) {
	task, err := m.Start(ctx, cfg)
	if err != nil {
		return model.RunResult{}, err
	}
	for ev := range task.Events() {
		if onEvent != nil {
			onEvent(ev)
		}
	}
	return task.Wait()
}
