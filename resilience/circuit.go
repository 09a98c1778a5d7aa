package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is rejecting all calls.
	StateOpen
	// StateHalfOpen means the circuit permits a probe call to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a circuit breaker. It is immutable once the
// breaker is created.
type BreakerConfig struct {
	// Name identifies the breaker, typically the downstream dependency it
	// guards. Used in errors and events.
	Name string

	// FailureThreshold is the number of consecutive failures before the
	// circuit opens.
	// Default: 5
	FailureThreshold int

	// OpenDuration is how long the circuit stays open before the next call
	// is allowed through as a recovery probe.
	// Default: 30 seconds
	OpenDuration time.Duration

	// CallTimeout is the per-attempt deadline the Coordinator applies to
	// calls gated by this breaker. The breaker itself does not enforce it.
	// Default: 30 seconds
	CallTimeout time.Duration

	// HalfOpenMaxProbes is the number of concurrent probe calls allowed
	// while half-open.
	// Default: 1
	HalfOpenMaxProbes int

	// OnStateChange is called whenever the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines whether an error counts toward the threshold.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Events receives breaker events. Nil disables emission.
	Events Events
}

// CircuitBreaker is a named, stateful gate in front of an unreliable
// dependency. It tracks consecutive failures and fast-fails calls for
// OpenDuration once FailureThreshold is reached.
//
// The open-to-half-open transition is checked lazily on the next call after
// the open window elapses; no background timer is involved.
type CircuitBreaker struct {
	config BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	openUntil   time.Time
	probes      int
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config BreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.OpenDuration <= 0 {
		config.OpenDuration = 30 * time.Second
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxProbes <= 0 {
		config.HalfOpenMaxProbes = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// CallTimeout returns the per-attempt deadline configured for calls gated
// by this breaker.
func (cb *CircuitBreaker) CallTimeout() time.Duration {
	return cb.config.CallTimeout
}

// Execute gates the operation through the circuit. When the circuit is open
// it fails fast with a *CircuitOpenError without invoking the operation;
// otherwise the operation's own outcome propagates unchanged after the
// breaker updates its bookkeeping.
//
// The operation runs outside the breaker's lock, so concurrent calls against
// a closed breaker proceed in parallel; only the state accounting is
// serialized.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		record(ctx, cb.config.Events, Event{
			Kind:      EventCircuitRejected,
			Operation: cb.config.Name,
			Err:       err,
		})
		return err
	}

	err := op(ctx)
	cb.afterCall(ctx, err)
	return err
}

// State returns the current circuit state, applying the lazy open-to-half-open
// transition if the open window has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Reset forces the breaker back to closed and clears the failure counter.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
	cb.openUntil = time.Time{}

	if oldState != StateClosed && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, StateClosed)
	}
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return &CircuitOpenError{Name: cb.config.Name, OpenUntil: cb.openUntil}
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxProbes {
			// The open window has already elapsed; there is no meaningful
			// OpenUntil to report while a probe is in flight.
			return &CircuitOpenError{Name: cb.config.Name}
		}
		cb.probes++
	}

	return nil
}

func (cb *CircuitBreaker) afterCall(ctx context.Context, err error) {
	cb.mu.Lock()

	isFailure := cb.config.IsFailure(err)
	oldState := cb.state
	var opened bool

	switch cb.state {
	case StateClosed:
		if isFailure {
			cb.failures++
			cb.lastFailure = time.Now()
			if cb.failures >= cb.config.FailureThreshold {
				cb.openLocked()
				opened = true
			}
		} else {
			// Failures do not accumulate across isolated incidents.
			cb.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Failed probe: re-enter open with a fresh window.
			cb.lastFailure = time.Now()
			cb.openLocked()
			opened = true
		} else {
			// Recovered.
			cb.state = StateClosed
			cb.failures = 0
			cb.probes = 0
		}
	}

	newState := cb.state
	cb.mu.Unlock()

	if oldState != newState && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(oldState, newState)
	}
	if opened {
		record(ctx, cb.config.Events, Event{
			Kind:      EventCircuitOpened,
			Operation: cb.config.Name,
			From:      oldState,
			To:        StateOpen,
			Err:       err,
		})
	}
}

func (cb *CircuitBreaker) openLocked() {
	cb.state = StateOpen
	cb.openUntil = time.Now().Add(cb.config.OpenDuration)
	cb.probes = 0
}

func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && !time.Now().Before(cb.openUntil) {
		cb.state = StateHalfOpen
		cb.probes = 0
		if cb.config.OnStateChange != nil {
			cb.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return cb.state
}

// Stats returns a snapshot of the breaker's observable state.
func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerStats{
		State:               cb.currentStateLocked(),
		ConsecutiveFailures: cb.failures,
		LastFailure:         cb.lastFailure,
		OpenUntil:           cb.openUntil,
	}
}

// BreakerStats is a point-in-time snapshot of a circuit breaker, suitable
// for a diagnostics or health endpoint.
type BreakerStats struct {
	State               State     `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastFailure         time.Time `json:"last_failure,omitzero"`
	OpenUntil           time.Time `json:"open_until,omitzero"`
}
