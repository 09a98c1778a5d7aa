package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/fallowlabs/depsafe/resilience"
)

// testObserver is an Observer with a noop meter/tracer and a capturing logger.
type testObserver struct {
	logger Logger
}

func (o *testObserver) Tracer() trace.Tracer {
	return tracenoop.NewTracerProvider().Tracer("test")
}

func (o *testObserver) Meter() metric.Meter {
	return noop.NewMeterProvider().Meter("test")
}

func (o *testObserver) Logger() Logger { return o.logger }

func (o *testObserver) Shutdown(ctx context.Context) error { return nil }

func TestNewRecorder_NilObserver(t *testing.T) {
	if _, err := NewRecorder(nil); !errors.Is(err, ErrNilObserver) {
		t.Errorf("NewRecorder(nil) error = %v, want ErrNilObserver", err)
	}
}

func TestRecorder_Record(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&testObserver{logger: NewLoggerWithWriter("debug", &buf)})
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	tests := []struct {
		name    string
		event   resilience.Event
		wantMsg string
	}{
		{
			name: "circuit opened",
			event: resilience.Event{
				Kind:      resilience.EventCircuitOpened,
				Operation: "payments-db",
				From:      resilience.StateClosed,
				To:        resilience.StateOpen,
				Err:       errors.New("connection refused"),
			},
			wantMsg: "circuit breaker opened",
		},
		{
			name: "circuit rejected",
			event: resilience.Event{
				Kind:      resilience.EventCircuitRejected,
				Operation: "payments-db",
			},
			wantMsg: "circuit breaker open, call rejected",
		},
		{
			name: "retry exhausted",
			event: resilience.Event{
				Kind:      resilience.EventRetryExhausted,
				Operation: "search",
				Attempt:   3,
				Err:       errors.New("boom"),
			},
			wantMsg: "retry attempts exhausted",
		},
		{
			name: "retry resolved",
			event: resilience.Event{
				Kind:      resilience.EventRetryResolved,
				Operation: "search",
				Attempt:   2,
			},
			wantMsg: "operation recovered after retry",
		},
		{
			name: "timeout",
			event: resilience.Event{
				Kind:      resilience.EventTimeout,
				Operation: "slow-api",
				Timeout:   250 * time.Millisecond,
			},
			wantMsg: "operation timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			rec.Record(context.Background(), tt.event)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse log output: %v\nOutput: %s", err, buf.String())
			}
			if entry["msg"] != tt.wantMsg {
				t.Errorf("msg = %v, want %q", entry["msg"], tt.wantMsg)
			}
			if entry["guard.operation"] != tt.event.Operation {
				t.Errorf("guard.operation = %v, want %q", entry["guard.operation"], tt.event.Operation)
			}
		})
	}
}

func TestRecorder_TimeoutFields(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&testObserver{logger: NewLoggerWithWriter("debug", &buf)})
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	rec.Record(context.Background(), resilience.Event{
		Kind:      resilience.EventTimeout,
		Operation: "slow-api",
		Timeout:   2 * time.Second,
	})

	if !strings.Contains(buf.String(), `"timeout_ms":2000`) {
		t.Errorf("expected timeout_ms=2000 in output, got %s", buf.String())
	}
}

// TestRecorder_AsCoordinatorSink runs the Recorder end to end as a
// Coordinator event sink.
func TestRecorder_AsCoordinatorSink(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&testObserver{logger: NewLoggerWithWriter("debug", &buf)})
	if err != nil {
		t.Fatalf("NewRecorder() error = %v", err)
	}

	coord := resilience.NewCoordinator(resilience.Defaults{
		FailureThreshold: 1,
		OpenDuration:     time.Hour,
	}, resilience.WithEvents(rec))

	_ = coord.Execute(context.Background(), "ledger", func(ctx context.Context) error {
		return errors.New("unavailable")
	})

	if !strings.Contains(buf.String(), "circuit breaker opened") {
		t.Errorf("expected circuit breaker opened log, got %s", buf.String())
	}
}
