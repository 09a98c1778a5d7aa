package resilience

import (
	"context"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Name identifies the guarded operation in errors and events.
	Name string

	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration

	// Events receives timeout events. Nil disables emission.
	Events Events
}

// Timeout races an operation against a deadline. Whichever settles first
// wins: the operation's own outcome propagates unchanged, and a deadline win
// yields a *TimeoutError.
//
// A timed-out operation is not forcibly stopped. The deadline is signaled
// through the operation's context for cooperative cancellation, and a late
// result is discarded.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a deadline.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-opCtx.Done():
		if ctx.Err() != nil {
			// The caller's context ended, not our deadline.
			return ctx.Err()
		}
		record(ctx, t.config.Events, Event{
			Kind:      EventTimeout,
			Operation: t.config.Name,
			Timeout:   t.config.Timeout,
		})
		return &TimeoutError{Name: t.config.Name, Timeout: t.config.Timeout}
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with a
// deadline and no event sink.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: timeout})
	return t.Execute(ctx, op)
}
