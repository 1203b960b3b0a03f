package download

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/handiism/ygo-card-downloader/internal/model"
)

// eventBuffer is the capacity of a task's event channel.
const eventBuffer = 256

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	// LevelInfo is a regular status message.
	LevelInfo ProgressLevel = iota

	// LevelVerbose is per-card detail, hidden unless verbose output is on.
	LevelVerbose

	// LevelWarning reports a condition that does not stop the run.
	LevelWarning

	// LevelError reports a failed card.
	LevelError

	// LevelSuccess reports a completed step.
	LevelSuccess
)

// ProgressEvent represents a human-readable progress message.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// EventKind tells frontends how to interpret an Event.
type EventKind int

const (
	// EventStarted carries the catalog size in Total before the first card.
	EventStarted EventKind = iota

	// EventProgress carries Current/Total after each visited card.
	EventProgress

	// EventLog carries a ProgressEvent message.
	EventLog

	// EventDone is terminal and carries the Result, also for cancelled runs.
	EventDone

	// EventFailed is terminal and carries Err; the run could not start
	// processing cards.
	EventFailed
)

// Event is a message sent from a running task to its frontend.
type Event struct {
	Kind    EventKind
	Current int
	Total   int
	Log     ProgressEvent
	Result  model.RunResult
	Err     error
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventFailed
}

// Task is a single run executing on its own goroutine.
//
// The only state shared with the frontend is the cancellation token, written
// by the frontend, and the event channel, written by the task. Progress and
// log events are sent without blocking and may be dropped when the frontend
// lags behind; the terminal event is always delivered, after which the
// channel is closed.
//
// Example:
//
//	task, err := manager.Start(ctx, cfg)
//	if err != nil {
//	    return err // invalid configuration, nothing was started
//	}
//	for ev := range task.Events() {
//	    switch ev.Kind {
//	    case download.EventProgress:
//	        bar.Set(ev.Current)
//	    case download.EventDone:
//	        fmt.Println(ev.Result.Summary())
//	    }
//	}
type Task struct {
	id     string
	cfg    model.DownloadConfig
	token  *CancelToken
	events chan Event
	done   chan struct{}

	mu     sync.Mutex
	result model.RunResult
	err    error
}

func newTask(id string, cfg model.DownloadConfig) *Task {
	return &Task{
		id:     id,
		cfg:    cfg,
		token:  NewCancelToken(),
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the run identifier.
func (t *Task) ID() string {
	return t.id
}

// Config returns the configuration the task runs with.
func (t *Task) Config() model.DownloadConfig {
	return t.cfg
}

// Cancel requests cooperative cancellation. It takes effect before the next card.
func (t *Task) Cancel() {
	t.token.Set()
}

// CancelRequested reports whether Cancel was called.
func (t *Task) CancelRequested() bool {
	return t.token.IsSet()
}

// Events returns the event channel for blocking consumers.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Poll drains all pending events without blocking.
func (t *Task) Poll() []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its result.
func (t *Task) Wait() (model.RunResult, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

func (t *Task) run(ctx context.Context, fetcher CatalogFetcher, processor *Processor, log *slog.Logger) {
	defer close(t.done)
	defer close(t.events)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected error: %v", r)
			log.Error("Task panicked", slog.Any("error", err))
			t.finish(ctx, Event{Kind: EventFailed, Err: err}, model.RunResult{RunID: t.id, OutputDir: t.cfg.OutputDir}, err)
		}
	}()

	t.sendNonBlocking(Event{Kind: EventLog, Log: ProgressEvent{Message: "Fetching card catalog...", Level: LevelInfo}})

	cards, err := fetcher.FetchCatalog(ctx)
	if err != nil {
		err = fmt.Errorf("failed to fetch card data: %w", err)
		t.finish(ctx, Event{Kind: EventFailed, Err: err}, model.RunResult{RunID: t.id, OutputDir: t.cfg.OutputDir}, err)
		return
	}

	t.sendNonBlocking(Event{Kind: EventStarted, Total: len(cards)})
	t.sendNonBlocking(Event{Kind: EventLog, Log: ProgressEvent{Message: fmt.Sprintf("Found %d cards", len(cards)), Level: LevelInfo}})

	result := processor.run(ctx, t.id, cards, t.cfg, t.token,
		func(current, total int) {
			t.sendNonBlocking(Event{Kind: EventProgress, Current: current, Total: total})
		},
		func(pe ProgressEvent) {
			t.sendNonBlocking(Event{Kind: EventLog, Log: pe})
		},
	)

	t.finish(ctx, Event{Kind: EventDone, Result: result}, result, nil)
}

func (t *Task) finish(ctx context.Context, ev Event, result model.RunResult, err error) {
	t.mu.Lock()
	t.result = result
	t.err = err
	t.mu.Unlock()

	select {
	case t.events <- ev:
		return
	default:
	}

	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}

func (t *Task) sendNonBlocking(ev Event) {
	select {
	case t.events <- ev:
	default:
	}
}
