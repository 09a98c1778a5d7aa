package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when a circuit breaker rejects a call
	// without invoking the operation.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")
)

// CircuitOpenError reports a fast-failed call against an open breaker.
// It matches ErrCircuitOpen under errors.Is.
type CircuitOpenError struct {
	// Name is the breaker that rejected the call.
	Name string

	// OpenUntil is when the breaker will next permit a probe call. It is
	// zero when a half-open breaker rejects a call because its probe
	// allowance is already in use.
	OpenUntil time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resilience: circuit breaker %q is open", e.Name)
}

// Is reports whether target is ErrCircuitOpen.
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// TimeoutError reports an operation that did not settle before its deadline.
// It matches ErrTimeout under errors.Is.
type TimeoutError struct {
	// Name identifies the guarded operation.
	Name string

	// Timeout is the configured deadline that elapsed.
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("resilience: operation timed out after %s", e.Timeout)
	}
	return fmt.Sprintf("resilience: operation %q timed out after %s", e.Name, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
