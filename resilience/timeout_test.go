package resilience

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewTimeout_Defaults(t *testing.T) {
	to := NewTimeout(TimeoutConfig{})

	if to.config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", to.config.Timeout)
	}
}

func TestTimeout_FastOperationPassesThrough(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 100 * time.Millisecond})

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestTimeout_OperationErrorUnmodified(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 100 * time.Millisecond})

	testErr := errors.New("boom")
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		return testErr
	})
	if err != testErr {
		t.Errorf("Execute() error = %v, want the operation's own error %v", err, testErr)
	}
}

func TestTimeout_DeadlineWins(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Name: "slow-api", Timeout: 20 * time.Millisecond})

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() = %v, want ErrTimeout", err)
	}

	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("Execute() = %T, want *TimeoutError", err)
	}
	if toErr.Name != "slow-api" {
		t.Errorf("TimeoutError.Name = %q, want slow-api", toErr.Name)
	}
	if toErr.Timeout != 20*time.Millisecond {
		t.Errorf("TimeoutError.Timeout = %v, want 20ms", toErr.Timeout)
	}
	// The message encodes the configured timeout.
	if !strings.Contains(err.Error(), "20ms") {
		t.Errorf("Error message %q does not mention the timeout", err.Error())
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := to.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() = %v, want context.Canceled", err)
	}
}

func TestTimeout_Event(t *testing.T) {
	var got []Event
	to := NewTimeout(TimeoutConfig{
		Name:    "slow-api",
		Timeout: 10 * time.Millisecond,
		Events: EventsFunc(func(ctx context.Context, e Event) {
			got = append(got, e)
		}),
	})

	_ = to.Execute(context.Background(), func(ctx context.Context) error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})

	if len(got) != 1 {
		t.Fatalf("Got %d events, want 1", len(got))
	}
	e := got[0]
	if e.Kind != EventTimeout || e.Operation != "slow-api" || e.Timeout != 10*time.Millisecond {
		t.Errorf("Event = %+v, want timeout event for slow-api at 10ms", e)
	}
}

func TestTimeout_LateResultDiscarded(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	finished := make(chan struct{})
	err := to.Execute(context.Background(), func(ctx context.Context) error {
		go func() {
			// Simulated background continuation of the timed-out work.
			time.Sleep(30 * time.Millisecond)
			close(finished)
		}()
		time.Sleep(50 * time.Millisecond)
		return errors.New("late failure")
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() = %v, want ErrTimeout", err)
	}

	// The operation keeps running; its eventual outcome never surfaces.
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Background work did not continue after timeout")
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("ExecuteWithTimeout() error = %v", err)
	}
}
