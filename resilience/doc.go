// Package resilience guards calls to unreliable downstream dependencies.
//
// The package provides the following patterns:
//
//   - Circuit Breaker: a named, stateful gate that stops calling a failing
//     dependency for a cooldown period after a run of consecutive failures.
//
//   - Retry: re-invokes a failing operation with constant or exponential
//     backoff between attempts.
//
//   - Timeout: races an operation against a deadline and surfaces a
//     TimeoutError when the deadline wins.
//
//   - Bulkhead: caps concurrent operations to prevent resource exhaustion.
//
//   - Rate Limiter: throttles operations with a token bucket.
//
// # Coordinator
//
// The Coordinator ties the patterns together. It owns a registry of named
// circuit breakers, creating each one lazily on first use from process-wide
// defaults, and composes the wrappers around a guarded operation per call:
//
//	coord := resilience.NewCoordinator(resilience.Defaults{
//	    FailureThreshold: 3,
//	    OpenDuration:     30 * time.Second,
//	    CallTimeout:      2 * time.Second,
//	})
//
//	err := coord.Execute(ctx, "payments-db", func(ctx context.Context) error {
//	    return store.Ping(ctx)
//	},
//	    resilience.WithRetry(resilience.RetryConfig{MaxAttempts: 3}),
//	    resilience.WithTimeout(500*time.Millisecond),
//	)
//
// The chain is ordered rate limiter, bulkhead, retry, circuit breaker,
// timeout, outermost to innermost. Retries re-enter the breaker each
// attempt and the timeout bounds each attempt individually.
//
// Breaker state transitions, fast-fail rejections, retry exhaustion, and
// timeouts are reported to an Events sink; errors themselves are never
// wrapped or replaced on the way out.
//
// # Standalone use
//
// Each pattern also works on its own:
//
//	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{
//	    Name:             "billing-api",
//	    FailureThreshold: 5,
//	    OpenDuration:     time.Minute,
//	})
//
//	err := cb.Execute(ctx, func(ctx context.Context) error {
//	    return callBillingAPI(ctx)
//	})
//
// A breaker constructed this way is private to its holder and invisible to
// any Coordinator registry or diagnostics snapshot.
package resilience
