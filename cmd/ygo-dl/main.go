package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/handiism/ygo-card-downloader/internal/config"
	"github.com/handiism/ygo-card-downloader/internal/download"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

const (
	exitError     = 1
	exitCancelled = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command line flags
	var (
		outputFlag  = flag.String("output", "", "Output directory (overrides config)")
		variantFlag = flag.String("variant", "", "Image size: normal, small or cropped")
		namingFlag  = flag.String("naming", "", "File naming: by-name or by-id")
		widthFlag   = flag.Int("width", 0, "Resize width in pixels (enables resizing)")
		heightFlag  = flag.Int("height", 0, "Resize height in pixels (enables resizing)")
		filterFlag  = flag.String("filter", "", "Resize filter: lanczos or catmullrom")
		configFlag  = flag.String("config", "", "Path to config file")
		delayFlag   = flag.Duration("delay", -1, "Pause after each image request (e.g. 100ms)")
		verboseFlag = flag.Bool("verbose", false, "Show every card and debug logs")
		quietFlag   = flag.Bool("quiet", false, "Only print the final report")
	)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Yu-Gi-Oh! Card Image Downloader - Download card artwork from YGOPRODeck")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  ygo-dl [options]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "For interactive mode, use: ygo-tui")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitError
	}

	// Apply flags
	if *outputFlag != "" {
		settings.OutputDir = *outputFlag
	}
	settings.OutputDir = config.ExpandPath(settings.OutputDir)
	if *variantFlag != "" {
		settings.Variant = *variantFlag
	}
	if *namingFlag != "" {
		settings.Naming = *namingFlag
	}
	if *widthFlag != 0 || *heightFlag != 0 {
		settings.ResizeImages = true
		if *widthFlag != 0 {
			settings.ResizeWidth = *widthFlag
		}
		if *heightFlag != 0 {
			settings.ResizeHeight = *heightFlag
		}
	}
	if *filterFlag != "" {
		settings.ResizeFilter = *filterFlag
	}
	if *delayFlag >= 0 {
		settings.RequestDelay = *delayFlag
	}
	switch {
	case *verboseFlag:
		settings.LogLevel = "debug"
	case *quietFlag:
		settings.LogLevel = "error"
	}

	log, err := settings.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	cfg, err := settings.ToDownloadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	manager, err := download.NewManager(settings, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	// ctx is the hard stop used on the second interrupt.
	ctx, abort := context.WithCancel(context.Background())
	defer abort()

	if !*quietFlag {
		fmt.Println("🃏 Yu-Gi-Oh! Card Image Downloader")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Printf("Size: %s | Naming: %s | Output: %s\n", cfg.Variant, cfg.Naming, cfg.OutputDir)
		if cfg.Resize != nil {
			fmt.Printf("Resize: %s (%s)\n", cfg.Resize, settings.ResizeFilter)
		}
		fmt.Println()
	}

	task, err := manager.Start(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	r := &renderer{verbose: *verboseFlag, quiet: *quietFlag, out: os.Stdout}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ev := range task.Events() {
			r.render(ev)
		}
		return nil
	})
	g.Go(func() error {
		return watchSignals(gctx, sigCh, task, abort, log)
	})
	_ = g.Wait()

	result, err := task.Wait()
	r.finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println(result.Summary())
	fmt.Printf("Images saved to: %s\n", result.OutputDir)

	if result.Cancelled {
		return exitCancelled
	}
	return 0
}

// watchSignals turns the first interrupt into a cooperative cancellation
// and the second one into a hard abort. It returns when the task is done.
func watchSignals(ctx context.Context, sigCh <-chan os.Signal, task *download.Task, abort context.CancelFunc, log *slog.Logger) error {
	for {
		select {
		case <-task.Done():
			return nil
		case <-ctx.Done():
			return nil
		case sig := <-sigCh:
			if !task.CancelRequested() {
				fmt.Fprintln(os.Stderr, "\nInterrupted, finishing current card... (press Ctrl+C again to abort)")
				log.Info("Cancellation requested", slog.String("signal", sig.String()), slog.String("run_id", task.ID()))
				task.Cancel()
				continue
			}
			fmt.Fprintln(os.Stderr, "\nAborting...")
			log.Warn("Aborting run", slog.String("run_id", task.ID()))
			abort()
			return errors.New("aborted")
		}
	}
}

// renderer prints task events as a progress bar plus log lines.
type renderer struct {
	verbose bool
	quiet   bool
	out     io.Writer
	bar     *progressbar.ProgressBar
}

func (r *renderer) render(ev download.Event) {
	switch ev.Kind {
	case download.EventStarted:
		if r.quiet {
			return
		}
		r.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Downloading"),
			progressbar.OptionSetItsString("card"),
			progressbar.OptionShowIts(),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)

	case download.EventProgress:
		if r.bar != nil {
			_ = r.bar.Set(ev.Current)
		}

	case download.EventLog:
		if r.quiet || (ev.Log.Level == download.LevelVerbose && !r.verbose) {
			return
		}
		if r.bar != nil {
			_ = r.bar.Clear()
		}
		fmt.Fprintln(r.out, levelPrefix(ev.Log.Level)+ev.Log.Message)

	case download.EventFailed:
		if errors.Is(ev.Err, model.ErrNetwork) {
			fmt.Fprintln(os.Stderr, "❌ Could not reach the card catalog, check your connection")
		}
	}
}

func (r *renderer) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

func levelPrefix(level download.ProgressLevel) string {
	switch level {
	case download.LevelError:
		return "❌ "
	case download.LevelWarning:
		return "⚠️  "
	case download.LevelSuccess:
		return "✅ "
	case download.LevelInfo:
		return "ℹ️  "
	}
	return "   "
}
