package health

import (
	"context"
	"fmt"

	"github.com/fallowlabs/depsafe/resilience"
)

// BreakerCheckerConfig configures the circuit breaker health checker.
type BreakerCheckerConfig struct {
	// UnhealthyRatio is the fraction of open breakers at or above which the
	// checker reports unhealthy instead of degraded. Default: 0.5
	UnhealthyRatio float64
}

// BreakerChecker reports the state of a coordinator's circuit breakers.
// Any open breaker degrades the result; when at least UnhealthyRatio of the
// breakers are open the result is unhealthy. Half-open breakers appear in
// the details but do not change the status.
type BreakerChecker struct {
	coord  *resilience.Coordinator
	config BreakerCheckerConfig
}

// NewBreakerChecker creates a checker over the coordinator's breakers.
func NewBreakerChecker(coord *resilience.Coordinator, config ...BreakerCheckerConfig) *BreakerChecker {
	cfg := BreakerCheckerConfig{UnhealthyRatio: 0.5}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.UnhealthyRatio <= 0 || cfg.UnhealthyRatio > 1 {
			cfg.UnhealthyRatio = 0.5
		}
	}
	return &BreakerChecker{coord: coord, config: cfg}
}

// Name returns the name of this checker.
func (b *BreakerChecker) Name() string {
	return "circuit_breakers"
}

// Check inspects every breaker the coordinator currently tracks.
func (b *BreakerChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	stats := b.coord.Stats()
	if len(stats) == 0 {
		return Healthy("no breakers registered")
	}

	details := make(map[string]any, len(stats))
	open := 0
	for name, s := range stats {
		entry := map[string]any{
			"state":                s.State.String(),
			"consecutive_failures": s.ConsecutiveFailures,
		}
		if !s.OpenUntil.IsZero() {
			entry["open_until"] = s.OpenUntil
		}
		details[name] = entry

		if s.State == resilience.StateOpen {
			open++
		}
	}

	switch {
	case open == 0:
		return Healthy(fmt.Sprintf("all %d breakers closed", len(stats))).WithDetails(details)
	case float64(open)/float64(len(stats)) >= b.config.UnhealthyRatio:
		return Unhealthy(
			fmt.Sprintf("%d of %d breakers open", open, len(stats)),
			ErrCheckFailed,
		).WithDetails(details)
	default:
		return Degraded(
			fmt.Sprintf("%d of %d breakers open", open, len(stats)),
		).WithDetails(details)
	}
}
