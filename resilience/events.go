package resilience

import (
	"context"
	"time"
)

// EventKind identifies a resilience event.
type EventKind string

const (
	// EventCircuitRejected is emitted when an open breaker fast-fails a call.
	EventCircuitRejected EventKind = "circuit_breaker_open"
	// EventCircuitOpened is emitted when a breaker transitions to open.
	EventCircuitOpened EventKind = "circuit_breaker_opened"
	// EventRetryExhausted is emitted when all retry attempts have failed.
	EventRetryExhausted EventKind = "retry_exhausted"
	// EventRetryResolved is emitted when an operation succeeds after at
	// least one retry.
	EventRetryResolved EventKind = "retry_resolved"
	// EventTimeout is emitted when an operation misses its deadline.
	EventTimeout EventKind = "timeout"
)

// Event describes a single resilience occurrence for an observability sink.
type Event struct {
	// Kind is the event type.
	Kind EventKind

	// Operation is the guarded operation or breaker name.
	Operation string

	// Attempt is the 1-based attempt number for retry events.
	Attempt int

	// From and To carry the state transition for breaker events.
	From, To State

	// Timeout is the configured deadline for timeout events.
	Timeout time.Duration

	// Err is the error that triggered the event, if any.
	Err error
}

// Events is a fire-and-forget sink for resilience events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Record must never block for long, fail, or panic; the core
//   ignores anything the sink does.
type Events interface {
	Record(ctx context.Context, e Event)
}

// EventsFunc adapts a function to the Events interface.
type EventsFunc func(ctx context.Context, e Event)

// Record calls f.
func (f EventsFunc) Record(ctx context.Context, e Event) {
	f(ctx, e)
}

// NopEvents is an Events sink that discards everything.
type NopEvents struct{}

// Record does nothing.
func (NopEvents) Record(ctx context.Context, e Event) {}

// record dispatches to sink when it is non-nil.
func record(ctx context.Context, sink Events, e Event) {
	if sink != nil {
		sink.Record(ctx, e)
	}
}
