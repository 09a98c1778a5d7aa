package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff defines how delays grow between retry attempts.
type Backoff int

const (
	// BackoffExponential doubles the delay after each failed attempt.
	BackoffExponential Backoff = iota
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the retry behavior. It is a per-call policy, not
// persistent state.
type RetryConfig struct {
	// Name identifies the guarded operation in events.
	Name string

	// MaxAttempts is the maximum number of attempts, including the first.
	// A value of 1 performs a single attempt with no retry.
	// Default: 3
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	// Default: 100ms
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries. Zero leaves exponential
	// growth uncapped.
	MaxDelay time.Duration

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy Backoff

	// Jitter adds up to 25% random variance to delays to avoid thundering
	// herds. The MaxDelay cap still holds after jitter.
	Jitter bool

	// RetryIf determines whether an error should trigger another attempt.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Events receives retry_resolved and retry_exhausted events.
	// Nil disables emission.
	Events Events
}

// Retry re-invokes a failing operation with backoff between attempts.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry executor.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 100 * time.Millisecond
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs the operation until it succeeds, a non-retryable error is
// seen, or MaxAttempts is reached. Only the final attempt's error is
// returned; earlier errors are discarded.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)

		if err == nil {
			if attempt > 1 {
				record(ctx, r.config.Events, Event{
					Kind:      EventRetryResolved,
					Operation: r.config.Name,
					Attempt:   attempt,
				})
			}
			return nil
		}

		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.delayFor(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		// Wait without blocking other goroutines, honoring cancellation.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	record(ctx, r.config.Events, Event{
		Kind:      EventRetryExhausted,
		Operation: r.config.Name,
		Attempt:   r.config.MaxAttempts,
		Err:       lastErr,
	})
	return lastErr
}

// delayFor returns the wait before the retry following the given attempt.
func (r *Retry) delayFor(attempt int) time.Duration {
	delay := r.config.BaseDelay

	if r.config.Strategy == BackoffExponential {
		for i := 1; i < attempt; i++ {
			delay *= 2
			if r.config.MaxDelay > 0 && delay >= r.config.MaxDelay {
				delay = r.config.MaxDelay
				break
			}
		}
	}

	if q := delay / 4; r.config.Jitter && q > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(q)))
	}

	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
