package model

import (
	"fmt"
	"time"
)

// RunResult aggregates the outcome of a run.
//
// Counters only grow while the run is in progress. Downloaded + Skipped never
// exceeds Examined, and Examined never exceeds Total. A cancelled run stops
// examining cards, so Examined can be lower than Total.
type RunResult struct {
	// RunID identifies the run in logs.
	RunID string

	// Total is the number of cards in the catalog.
	Total int

	// Examined is the number of cards visited before the run ended.
	Examined int

	// Downloaded counts cards whose image was written.
	Downloaded int

	// Skipped counts cards without an image for the variant or whose
	// processing failed.
	Skipped int

	// Cancelled is true when the run stopped on a cancellation request.
	Cancelled bool

	// OutputDir is where the images were written.
	OutputDir string

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Summary returns the terminal report line for the run.
func (r RunResult) Summary() string {
	status := "complete"
	if r.Cancelled {
		status = "cancelled"
	}
	return fmt.Sprintf("Download %s: downloaded %d, skipped %d (%d/%d cards) in %s",
		status, r.Downloaded, r.Skipped, r.Examined, r.Total, r.Elapsed.Round(time.Millisecond))
}
