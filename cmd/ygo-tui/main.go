package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/handiism/ygo-card-downloader/internal/config"
	"github.com/handiism/ygo-card-downloader/internal/download"
	"github.com/handiism/ygo-card-downloader/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file")
	logFlag := flag.String("log", "", "Log file (default: user cache dir)")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	settings.OutputDir = config.ExpandPath(settings.OutputDir)

	// The terminal belongs to the UI, so logs go to a file.
	logPath := *logFlag
	if logPath == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		logPath = filepath.Join(cacheDir, "ygo-card-downloader", "ygo-tui.log")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log, err := settings.NewLogger(logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	manager, err := download.NewManager(settings, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings, manager, log); err != nil {
		logFile.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
