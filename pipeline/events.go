package pipeline

import (
	"context"
	"time"
)

// Event is emitted during a pipeline run. Concrete types: StageStartEvent,
// ContentEvent, ToolCallEvent, StageEndEvent.
type Event interface {
	event()
}

// StageStartEvent marks the beginning of a stage.
type StageStartEvent struct {
	Stage string
}

// ContentEvent carries a text fragment produced by a stage. Final marks the
// stage's final answer (as opposed to intermediate commentary).
type ContentEvent struct {
	Stage string
	Text  string
	Final bool
}

// ToolCallEvent notes that a stage's model requested a tool invocation.
type ToolCallEvent struct {
	Stage string
	Tool  string
}

// StageEndEvent marks a stage's completion; its output is now available in
// the run state under OutputKey.
type StageEndEvent struct {
	Stage     string
	OutputKey string
	Duration  time.Duration
}

func (StageStartEvent) event() {}
func (ContentEvent) event()    {}
func (ToolCallEvent) event()   {}
func (StageEndEvent) event()   {}

// StreamResult contains the channels returned by streaming execution.
type StreamResult struct {
	// Events receives pipeline events in order while the run executes
	Events <-chan Event

	// Result receives the final run state when execution completes
	Result <-chan *State

	// Errors receives any error that aborts the run
	Errors <-chan error

	// Done is closed when streaming is complete
	Done <-chan struct{}

	// Cancel stops the run
	Cancel context.CancelFunc
}

// Stream executes the pipeline asynchronously, emitting events as stages
// progress. Exactly one of Result or Errors receives a value before Done is
// closed; the Events channel is closed when the run finishes.
func (p *Pipeline) Stream(ctx context.Context, input string, opts ...RunOption) *StreamResult {
	ctx, cancel := context.WithCancel(ctx)

	events := make(chan Event, p.streamBuffer)
	result := make(chan *State, 1)
	errs := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(events)

		st, err := p.run(ctx, input, opts, func(ev Event) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errs <- err
			return
		}
		result <- st
	}()

	return &StreamResult{
		Events: events,
		Result: result,
		Errors: errs,
		Done:   done,
		Cancel: cancel,
	}
}
