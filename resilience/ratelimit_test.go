package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{})

	if rl.config.Rate != 100 {
		t.Errorf("Rate = %v, want 100", rl.config.Rate)
	}
	if rl.config.Burst != 10 {
		t.Errorf("Burst = %d, want 10", rl.config.Burst)
	}
	if rl.config.MaxWait != time.Second {
		t.Errorf("MaxWait = %v, want 1s", rl.config.MaxWait)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})

	if !rl.Allow() {
		t.Error("Allow() 1 = false, want true")
	}
	if !rl.Allow() {
		t.Error("Allow() 2 = false, want true")
	}
	if rl.Allow() {
		t.Error("Allow() 3 = true, want false (burst exhausted)")
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 5})

	if !rl.AllowN(3) {
		t.Error("AllowN(3) = false, want true")
	}
	if rl.AllowN(3) {
		t.Error("AllowN(3) = true, want false (only 2 tokens left)")
	}
}

func TestRateLimiter_ExecuteFailFast(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})
	ctx := context.Background()

	if err := rl.Execute(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Execute() 1 error = %v", err)
	}

	called := false
	err := rl.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute() 2 = %v, want ErrRateLimitExceeded", err)
	}
	if called {
		t.Error("Throttled operation should not be invoked")
	}
}

func TestRateLimiter_ExecuteWaits(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:        50, // A token every 20ms
		Burst:       1,
		WaitOnLimit: true,
		MaxWait:     time.Second,
	})
	ctx := context.Background()

	if err := rl.Execute(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Execute() 1 error = %v", err)
	}

	start := time.Now()
	if err := rl.Execute(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Execute() 2 error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Execute() 2 returned after %v, should wait for a token", elapsed)
	}
}

func TestRateLimiter_WaitTimesOut(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:        0.1, // A token every 10s
		Burst:       1,
		WaitOnLimit: true,
		MaxWait:     20 * time.Millisecond,
	})
	ctx := context.Background()

	if err := rl.Execute(ctx, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Execute() 1 error = %v", err)
	}

	err := rl.Execute(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute() 2 = %v, want ErrRateLimitExceeded", err)
	}
}
