package health

import (
	"context"
	"fmt"
	"runtime"
)

// RuntimeCheckerConfig configures the process runtime checker.
type RuntimeCheckerConfig struct {
	// MaxGoroutines is the goroutine count at or above which the checker
	// reports degraded. Default: 10000
	MaxGoroutines int

	// MaxHeapBytes is the heap allocation at or above which the checker
	// reports degraded. Default: 0 (no heap limit)
	MaxHeapBytes uint64
}

// RuntimeChecker reports goroutine and heap pressure for the process. A
// guarded service that leaks goroutines (stuck calls that never observe
// their deadline) shows up here before it exhausts the scheduler.
type RuntimeChecker struct {
	config RuntimeCheckerConfig
}

// NewRuntimeChecker creates a new runtime health checker.
func NewRuntimeChecker(config ...RuntimeCheckerConfig) *RuntimeChecker {
	cfg := RuntimeCheckerConfig{MaxGoroutines: 10000}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.MaxGoroutines <= 0 {
			cfg.MaxGoroutines = 10000
		}
	}
	return &RuntimeChecker{config: cfg}
}

// Name returns the name of this checker.
func (c *RuntimeChecker) Name() string {
	return "runtime"
}

// Check samples runtime stats and compares them against the limits.
func (c *RuntimeChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	goroutines := runtime.NumGoroutine()

	details := map[string]any{
		"goroutines": goroutines,
		"heap_alloc": stats.HeapAlloc,
		"heap_sys":   stats.HeapSys,
		"num_gc":     stats.NumGC,
	}

	if goroutines >= c.config.MaxGoroutines {
		return Degraded(
			fmt.Sprintf("goroutine count high: %d", goroutines),
		).WithDetails(details)
	}
	if c.config.MaxHeapBytes > 0 && stats.HeapAlloc >= c.config.MaxHeapBytes {
		return Degraded(
			fmt.Sprintf("heap allocation high: %d bytes", stats.HeapAlloc),
		).WithDetails(details)
	}

	return Healthy("runtime normal").WithDetails(details)
}
