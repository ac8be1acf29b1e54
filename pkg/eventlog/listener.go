// Package eventlog consumes pipeline lifecycle events from the event bus and
// records them in the service log and metrics.
package eventlog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/eventbus"
	"github.com/dukex/pipeflow/pkg/events"
	"github.com/dukex/pipeflow/pkg/metrics"
)

var ErrAlreadyStarted = errors.New("event listener already started")

type Listener struct {
	subscriber eventbus.EventSubscriber
	logger     *slog.Logger
	metrics    *metrics.Collector
	started    bool
}

func NewListener(subscriber eventbus.EventSubscriber, logger *slog.Logger, collector *metrics.Collector) *Listener {
	return &Listener{
		subscriber: subscriber,
		logger:     logger,
		metrics:    collector,
	}
}

// Start registers a handler for every lifecycle event type and subscribes.
// Delivery stops when ctx is cancelled or the bus is closed.
func (l *Listener) Start(ctx context.Context) error {
	if l.started {
		return ErrAlreadyStarted
	}

	for _, eventType := range events.Types {
		if err := l.subscriber.Handle(eventType, l.handle); err != nil {
			return err
		}
	}

	if err := l.subscriber.Subscribe(ctx); err != nil {
		l.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	l.started = true
	l.logger.InfoContext(ctx, "Event listener started", "topic", events.Topic)

	return nil
}

func (l *Listener) handle(ctx context.Context, event any) error {
	switch e := event.(type) {
	case *events.StepFailed:
		l.record(ctx, slog.LevelWarn, e.BaseEvent, "step_id", e.StepID, "error", e.Error, "duration", e.Duration)
	case *events.InputRejected:
		l.record(ctx, slog.LevelInfo, e.BaseEvent, "step_id", e.StepID, "errors", len(e.Errors))
	case *events.PipelineCompleted:
		l.record(ctx, slog.LevelInfo, e.BaseEvent, "steps_recorded", e.StepsRecorded)
	case *events.PipelineStarted:
		l.record(ctx, slog.LevelInfo, e.BaseEvent, "first_step_id", e.FirstStepID)
	case *events.PipelineReset:
		l.record(ctx, slog.LevelInfo, e.BaseEvent)
	case *events.StepExecuted:
		l.record(ctx, slog.LevelDebug, e.BaseEvent, "step_id", e.StepID)
	case *events.StepAwaitingInput:
		l.record(ctx, slog.LevelDebug, e.BaseEvent, "step_id", e.StepID)
	case *events.InputConsumed:
		l.record(ctx, slog.LevelDebug, e.BaseEvent, "step_id", e.StepID, "next_step_id", e.NextStepID)
	default:
		l.logger.WarnContext(ctx, "Ignoring unknown event payload")
	}

	return nil
}

func (l *Listener) record(ctx context.Context, level slog.Level, base events.BaseEvent, attrs ...any) {
	l.metrics.RecordEvent(string(base.Type))

	attrs = append([]any{
		"event_id", base.ID,
		"session_id", base.SessionID,
		"pipeline_id", base.PipelineID,
	}, attrs...)
	l.logger.Log(ctx, level, "Pipeline event "+string(base.Type), attrs...)
}
