package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults supplies process-wide fallback policy for breakers and retries,
// typically loaded from configuration at startup.
type Defaults struct {
	// FailureThreshold is the default consecutive-failure threshold for
	// lazily created breakers. Default: 5
	FailureThreshold int

	// OpenDuration is the default open window. Default: 30s
	OpenDuration time.Duration

	// CallTimeout is the default per-attempt deadline. Default: 30s
	CallTimeout time.Duration

	// MaxAttempts is the default retry attempt count. Default: 3
	MaxAttempts int

	// BaseDelay is the default wait before the first retry. Default: 100ms
	BaseDelay time.Duration

	// MaxDelay is the default cap on retry delays. Zero leaves backoff
	// uncapped.
	MaxDelay time.Duration
}

func (d Defaults) withFallbacks() Defaults {
	if d.FailureThreshold <= 0 {
		d.FailureThreshold = 5
	}
	if d.OpenDuration <= 0 {
		d.OpenDuration = 30 * time.Second
	}
	if d.CallTimeout <= 0 {
		d.CallTimeout = 30 * time.Second
	}
	if d.MaxAttempts <= 0 {
		d.MaxAttempts = 3
	}
	if d.BaseDelay <= 0 {
		d.BaseDelay = 100 * time.Millisecond
	}
	return d
}

// Coordinator owns the registry of named circuit breakers and composes
// resilience wrappers around guarded operations.
//
// Construct one per process and pass it by reference; independent
// coordinators hold independent breaker state, which keeps tests isolated.
type Coordinator struct {
	defaults Defaults
	events   Events

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	group    singleflight.Group
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithEvents sets the observability sink for all wrappers the coordinator
// builds and all breakers it creates.
func WithEvents(sink Events) CoordinatorOption {
	return func(c *Coordinator) {
		c.events = sink
	}
}

// NewCoordinator creates a coordinator with the given process-wide defaults.
func NewCoordinator(defaults Defaults, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		defaults: defaults.withFallbacks(),
		breakers: make(map[string]*CircuitBreaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callOptions is the resolved per-call policy.
type callOptions struct {
	timeout     time.Duration
	timeoutSet  bool
	retry       *RetryConfig
	breakerCfg  *BreakerConfig
	noBreaker   bool
	bulkhead    *Bulkhead
	rateLimiter *RateLimiter
}

// CallOption adjusts the policy for a single Execute call.
type CallOption func(*callOptions)

// WithTimeout bounds each individual attempt, overriding the breaker's
// configured call timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = d
		o.timeoutSet = true
	}
}

// WithRetry wraps the call in a retry executor. Zero fields fall back to the
// coordinator's defaults.
func WithRetry(cfg RetryConfig) CallOption {
	return func(o *callOptions) {
		o.retry = &cfg
	}
}

// WithBreakerConfig overrides the breaker configuration used if this call
// lazily creates the named breaker. An already registered breaker keeps its
// original configuration, including its CallTimeout; use WithTimeout to
// override the deadline for a single call.
func WithBreakerConfig(cfg BreakerConfig) CallOption {
	return func(o *callOptions) {
		o.breakerCfg = &cfg
	}
}

// WithoutBreaker skips circuit breaker gating for this call.
func WithoutBreaker() CallOption {
	return func(o *callOptions) {
		o.noBreaker = true
	}
}

// WithBulkhead caps the call's concurrency with the given bulkhead.
func WithBulkhead(b *Bulkhead) CallOption {
	return func(o *callOptions) {
		o.bulkhead = b
	}
}

// WithRateLimiter throttles the call with the given rate limiter.
func WithRateLimiter(rl *RateLimiter) CallOption {
	return func(o *callOptions) {
		o.rateLimiter = rl
	}
}

// Execute runs the operation under the composed resilience policy.
//
// The chain, outermost to innermost, is:
//
//	RateLimiter -> Bulkhead -> Retry -> CircuitBreaker -> Timeout -> op
//
// Retry sits outside the breaker so every attempt re-checks breaker state
// and an opening breaker short-circuits the remaining attempts cheaply. The
// timeout sits inside so it bounds each attempt, not the whole retry
// sequence.
//
// The error surfaced to the caller is whichever component terminated the
// chain, unwrapped.
func (c *Coordinator) Execute(ctx context.Context, name string, op func(context.Context) error, opts ...CallOption) error {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	execute := op

	// Resolve the gating breaker first; its configuration, not the
	// coordinator's defaults, decides the implicit per-attempt deadline.
	var cb *CircuitBreaker
	if !call.noBreaker {
		cb = c.lookupOrCreate(name, call.breakerCfg)
	}

	// Timeout (innermost): explicit option wins, otherwise the gating
	// breaker's call timeout applies.
	timeout := call.timeout
	if !call.timeoutSet && cb != nil {
		timeout = cb.CallTimeout()
	}
	if timeout > 0 {
		t := NewTimeout(TimeoutConfig{Name: name, Timeout: timeout, Events: c.events})
		inner := execute
		execute = func(ctx context.Context) error {
			return t.Execute(ctx, inner)
		}
	}

	// Circuit breaker.
	if cb != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return cb.Execute(ctx, inner)
		}
	}

	// Retry re-enters the breaker on every attempt, so repeated failures
	// count toward its threshold.
	if call.retry != nil {
		r := NewRetry(c.retryConfigFor(name, *call.retry))
		inner := execute
		execute = func(ctx context.Context) error {
			return r.Execute(ctx, inner)
		}
	}

	// Bulkhead.
	if call.bulkhead != nil {
		b := call.bulkhead
		inner := execute
		execute = func(ctx context.Context) error {
			return b.Execute(ctx, inner)
		}
	}

	// Rate limiter (outermost).
	if call.rateLimiter != nil {
		rl := call.rateLimiter
		inner := execute
		execute = func(ctx context.Context) error {
			return rl.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// ExecuteValue runs an operation producing a value under c's resilience
// policy. On failure the zero value of T is returned alongside the error.
func ExecuteValue[T any](ctx context.Context, c *Coordinator, name string, op func(context.Context) (T, error), opts ...CallOption) (T, error) {
	var result T
	err := c.Execute(ctx, name, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Breaker returns the named breaker, creating it from the coordinator's
// defaults on first use.
func (c *Coordinator) Breaker(name string) *CircuitBreaker {
	return c.lookupOrCreate(name, nil)
}

// Register creates a breaker from cfg and adds it to the registry. If the
// name is already registered the existing breaker is returned unchanged;
// the first registration wins.
func (c *Coordinator) Register(cfg BreakerConfig) *CircuitBreaker {
	return c.lookupOrCreate(cfg.Name, &cfg)
}

// Stats returns a snapshot of every registered breaker, keyed by name.
func (c *Coordinator) Stats() map[string]BreakerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make(map[string]BreakerStats, len(c.breakers))
	for name, cb := range c.breakers {
		stats[name] = cb.Stats()
	}
	return stats
}

// lookupOrCreate fetches the named breaker, creating it at most once under
// concurrent first use. Concurrent creators for the same name all receive
// the same instance.
func (c *Coordinator) lookupOrCreate(name string, overrides *BreakerConfig) *CircuitBreaker {
	c.mu.RLock()
	cb, ok := c.breakers[name]
	c.mu.RUnlock()
	if ok {
		return cb
	}

	v, _, _ := c.group.Do(name, func() (any, error) {
		c.mu.RLock()
		cb, ok := c.breakers[name]
		c.mu.RUnlock()
		if ok {
			return cb, nil
		}

		cb = NewCircuitBreaker(c.breakerConfigFor(name, overrides))

		c.mu.Lock()
		c.breakers[name] = cb
		c.mu.Unlock()
		return cb, nil
	})
	return v.(*CircuitBreaker)
}

// breakerConfigFor resolves the effective breaker configuration for name.
func (c *Coordinator) breakerConfigFor(name string, overrides *BreakerConfig) BreakerConfig {
	cfg := BreakerConfig{
		Name:             name,
		FailureThreshold: c.defaults.FailureThreshold,
		OpenDuration:     c.defaults.OpenDuration,
		CallTimeout:      c.defaults.CallTimeout,
		Events:           c.events,
	}
	if overrides == nil {
		return cfg
	}

	if overrides.FailureThreshold > 0 {
		cfg.FailureThreshold = overrides.FailureThreshold
	}
	if overrides.OpenDuration > 0 {
		cfg.OpenDuration = overrides.OpenDuration
	}
	if overrides.CallTimeout > 0 {
		cfg.CallTimeout = overrides.CallTimeout
	}
	if overrides.HalfOpenMaxProbes > 0 {
		cfg.HalfOpenMaxProbes = overrides.HalfOpenMaxProbes
	}
	if overrides.OnStateChange != nil {
		cfg.OnStateChange = overrides.OnStateChange
	}
	if overrides.IsFailure != nil {
		cfg.IsFailure = overrides.IsFailure
	}
	if overrides.Events != nil {
		cfg.Events = overrides.Events
	}
	return cfg
}

// retryConfigFor resolves the effective retry configuration for name.
func (c *Coordinator) retryConfigFor(name string, cfg RetryConfig) RetryConfig {
	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = c.defaults.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = c.defaults.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = c.defaults.MaxDelay
	}
	if cfg.Events == nil {
		cfg.Events = c.events
	}
	return cfg
}
