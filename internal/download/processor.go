package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/handiism/ygo-card-downloader/internal/ygoprodeck"
	"github.com/spf13/afero"
)

// DefaultRequestDelay is the pause after each card that hit the image host.
const DefaultRequestDelay = 100 * time.Millisecond

// CancelToken is a one-shot cooperative cancellation flag.
//
// The frontend sets it, the batch processor polls it between cards.
// An in-flight download always completes before the flag is observed.
type CancelToken struct {
	set atomic.Bool
}

// NewCancelToken creates an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Set requests cancellation. Calling it more than once has no further effect.
func (t *CancelToken) Set() {
	t.set.Store(true)
}

// IsSet reports whether cancellation was requested. A nil token is never set.
func (t *CancelToken) IsSet() bool {
	return t != nil && t.set.Load()
}

// cardOutcome is the result of the per-card step.
type cardOutcome int

const (
	outcomeDownloaded cardOutcome = iota
	outcomeNoImage
	outcomeFailed
)

// Processor runs the per-card pipeline over a catalog.
//
// Cards are processed one at a time in catalog order: resolve the image
// URL, resolve a collision-free filename, transcode. There is no internal
// parallelism; a fixed delay after each card that reached the image host
// bounds the request rate.
//
// Example:
//
//	p := NewProcessor(transcoder, afero.NewOsFs(), DefaultRequestDelay, log)
//	token := NewCancelToken()
//	result := p.Run(ctx, cards, cfg, token, func(current, total int) {
//	    fmt.Printf("\r%d/%d", current, total)
//	})
type Processor struct {
	transcoder ImageTranscoder
	fs         afero.Fs
	delay      time.Duration
	log        *slog.Logger
}

// NewProcessor creates a new Processor. A negative delay is treated as zero.
func NewProcessor(transcoder ImageTranscoder, fs afero.Fs, delay time.Duration, log *slog.Logger) *Processor {
	if delay < 0 {
		delay = 0
	}
	return &Processor{
		transcoder: transcoder,
		fs:         fs,
		delay:      delay,
		log:        log.With(slog.String("component", "processor")),
	}
}

// Run processes cards with cfg and returns the aggregated result.
//
// Before each card the token is checked; once set, the remaining cards are
// neither downloaded nor counted. Cards without a URL for the variant and
// cards whose processing fails are counted as skipped and never abort the
// batch. onProgress, if not nil, is called after every visited card with
// the 1-based index and the catalog size.
//
// ctx is a hard stop for process shutdown. It also bounds the network calls,
// so cancelling it may interrupt an in-flight download; use the token for
// cooperative cancellation.
func (p *Processor) Run(ctx context.Context, cards []model.Card, cfg model.DownloadConfig, token *CancelToken, onProgress func(current, total int)) model.RunResult {
	return p.run(ctx, uuid.NewString(), cards, cfg, token, onProgress, nil)
}

func (p *Processor) run(
	ctx context.Context,
	runID string,
	cards []model.Card,
	cfg model.DownloadConfig,
	token *CancelToken,
	onProgress func(current, total int),
	report func(ProgressEvent),
) model.RunResult {
	start := time.Now()
	log := p.log.With(slog.String("run_id", runID))
	result := model.RunResult{
		RunID:     runID,
		Total:     len(cards),
		OutputDir: cfg.OutputDir,
	}

	log.Info("Starting batch",
		slog.Int("cards", len(cards)),
		slog.String("variant", string(cfg.Variant)),
		slog.String("naming", string(cfg.Naming)),
		slog.String("output_dir", cfg.OutputDir))

	for i, card := range cards {
		if token.IsSet() || ctx.Err() != nil {
			result.Cancelled = true
			log.Info("Batch cancelled", slog.Int("index", i))
			notify(report, ProgressEvent{Message: fmt.Sprintf("Cancelled before card %d of %d", i+1, len(cards)), Level: LevelWarning})
			break
		}

		outcome, path, err := p.processCard(ctx, card, cfg)
		result.Examined++

		switch outcome {
		case outcomeDownloaded:
			result.Downloaded++
			log.Debug("Downloaded card", slog.Int("id", card.ID), slog.String("file", path))
			notify(report, ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", filepath.Base(path)), Level: LevelVerbose})
		case outcomeNoImage:
			result.Skipped++
			log.Debug("No image for variant", slog.Int("id", card.ID), slog.String("name", card.Name))
			notify(report, ProgressEvent{Message: fmt.Sprintf("Skipped %s: no %s image", card, cfg.Variant), Level: LevelVerbose})
		default:
			result.Skipped++
			log.Warn("Skipping card",
				slog.Int("id", card.ID),
				slog.String("name", card.Name),
				slog.String("file", path),
				slog.String("kind", model.KindOf(err).String()),
				slog.Any("error", err))
			notify(report, ProgressEvent{Message: fmt.Sprintf("Failed %s: %v", card, err), Level: LevelError})
		}

		if onProgress != nil {
			onProgress(i+1, len(cards))
		}

		if outcome != outcomeNoImage {
			p.wait(ctx)
		}
	}

	result.Elapsed = time.Since(start)
	log.Info("Batch finished",
		slog.Int("downloaded", result.Downloaded),
		slog.Int("skipped", result.Skipped),
		slog.Int("examined", result.Examined),
		slog.Bool("cancelled", result.Cancelled),
		slog.Duration("elapsed", result.Elapsed))

	return result
}

// processCard runs the pipeline for a single card. Panics are recovered
// into an error so that one bad record never aborts the batch.
func (p *Processor) processCard(ctx context.Context, card model.Card, cfg model.DownloadConfig) (outcome cardOutcome, path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeFailed
			err = fmt.Errorf("unexpected error processing %s: %v", card, r)
		}
	}()

	url, ok := ygoprodeck.ResolveImageURL(card, cfg.Variant)
	if !ok {
		return outcomeNoImage, "", nil
	}

	path, err = ResolveFilename(p.fs, card, cfg.Naming, cfg.OutputDir)
	if err != nil {
		return outcomeFailed, "", err
	}

	if err := p.transcoder.Transcode(ctx, url, path, cfg.Resize); err != nil {
		return outcomeFailed, path, err
	}

	return outcomeDownloaded, path, nil
}

// wait pauses for the request delay unless ctx ends first.
func (p *Processor) wait(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	timer := time.NewTimer(p.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func notify(report func(ProgressEvent), event ProgressEvent) {
	if report != nil {
		report(event)
	}
}
