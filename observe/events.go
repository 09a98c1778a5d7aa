package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fallowlabs/depsafe/resilience"
)

// Recorder is a resilience event sink backed by the Observer's meter and
// logger. It satisfies resilience.Events and can be handed to a Coordinator
// via resilience.WithEvents.
//
// Recording is fire-and-forget: a failed or slow exporter never propagates
// back into the guarded call.
type Recorder struct {
	events metric.Int64Counter
	logger Logger
}

// NewRecorder creates a Recorder from an Observer.
func NewRecorder(obs Observer) (*Recorder, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	events, err := obs.Meter().Int64Counter(
		"guard.events.total",
		metric.WithDescription("Resilience events by kind and operation"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		events: events,
		logger: obs.Logger(),
	}, nil
}

// Record counts the event and writes a structured log line for it.
func (r *Recorder) Record(ctx context.Context, e resilience.Event) {
	r.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard.event", string(e.Kind)),
		attribute.String("guard.operation", e.Operation),
	))

	logger := r.logger.WithCall(CallMeta{Operation: e.Operation, Attempt: e.Attempt})

	switch e.Kind {
	case resilience.EventCircuitOpened:
		logger.Warn(ctx, "circuit breaker opened",
			append([]Field{{Key: "from_state", Value: e.From.String()}}, errField(e.Err)...)...,
		)
	case resilience.EventCircuitRejected:
		logger.Debug(ctx, "circuit breaker open, call rejected")
	case resilience.EventRetryExhausted:
		logger.Warn(ctx, "retry attempts exhausted",
			append([]Field{{Key: "attempts", Value: e.Attempt}}, errField(e.Err)...)...,
		)
	case resilience.EventRetryResolved:
		logger.Info(ctx, "operation recovered after retry",
			Field{Key: "attempts", Value: e.Attempt},
		)
	case resilience.EventTimeout:
		logger.Warn(ctx, "operation timed out",
			Field{Key: "timeout_ms", Value: float64(e.Timeout.Milliseconds())},
		)
	default:
		logger.Debug(ctx, "resilience event", Field{Key: "kind", Value: string(e.Kind)})
	}
}

func errField(err error) []Field {
	if err == nil {
		return nil
	}
	return []Field{{Key: "error", Value: err.Error()}}
}

var _ resilience.Events = (*Recorder)(nil)
