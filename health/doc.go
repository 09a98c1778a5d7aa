// Package health exposes the state of guarded dependency calls as health
// checks suitable for liveness and readiness probes.
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
// BreakerChecker inspects a resilience.Coordinator and maps open circuit
// breakers to degraded or unhealthy results; RuntimeChecker watches goroutine
// and heap pressure.
//
// # Aggregating Checks
//
// Use Aggregator to combine multiple checks into one composite result:
//
//	agg := health.NewAggregator()
//	agg.Register("circuit_breakers", health.NewBreakerChecker(coord))
//	agg.Register("runtime", health.NewRuntimeChecker())
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides handlers for the common probe patterns:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//	// /healthz  liveness
//	// /readyz   readiness (503 only when unhealthy)
//	// /health   detailed JSON, including per-breaker state
package health
