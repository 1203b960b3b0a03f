// Package download provides the download orchestration logic for
// fetching card images.
//
// # Manager
//
// The Manager coordinates the entire download process:
//
//  1. Validate the run configuration and create the output directory
//  2. Fetch the card catalog
//  3. For each card, resolve the image URL for the selected variant
//  4. Resolve a collision-free filename
//  5. Download, optionally resize, and write the image as JPEG
//
// # Basic Usage
//
//	manager, err := download.NewManager(settings, log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	task, err := manager.Start(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err) // configuration error, nothing started
//	}
//
//	for ev := range task.Events() {
//	    fmt.Println(ev.Kind, ev.Current, ev.Total)
//	}
//	result, err := task.Wait()
//
// # Concurrency
//
// Cards are processed sequentially on the task goroutine with a fixed delay
// after each request to the image host. The frontend interacts with a
// running task only through Task.Cancel and the event channel; Task.Poll
// drains pending events without blocking, for frontends driven by a tick.
//
// # Cancellation
//
// Task.Cancel is cooperative: it is checked before each card, never in the
// middle of a download. The result of a cancelled run is still delivered
// in an EventDone with Result.Cancelled set.
//
// # Failures
//
// Per-card failures (network, decode, write) are logged and counted as
// skipped. Only configuration errors (returned by Start) and a failed
// catalog fetch (EventFailed) stop a run.
package download
