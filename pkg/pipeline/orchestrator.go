// Package pipeline drives resumable, multi-step pipelines: it resolves steps,
// chains unattended ones, pauses on form steps and persists progress between
// invocations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/pipeflow/pkg/eventbus"
	"github.com/dukex/pipeflow/pkg/events"
	"github.com/dukex/pipeflow/pkg/log"
	"github.com/dukex/pipeflow/pkg/metrics"
	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/otelhelper"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errStepNotInPipeline = errors.New("step is not part of the pipeline")

// Resolver is the part of the registry the orchestrator needs.
type Resolver interface {
	ResolvePipeline(id string) (*models.PipelineDefinition, error)
	ResolveStep(ctx context.Context, id string) (protocol.Step, error)
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

func WithMetrics(collector *metrics.Collector) Option {
	return func(o *Orchestrator) {
		o.metrics = collector
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// Orchestrator runs pipelines for sessions. It holds no per-session state of its
// own; everything that survives an invocation lives in the StateStore.
type Orchestrator struct {
	resolver  Resolver
	store     persistence.StateStore
	logger    *slog.Logger
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	metrics   *metrics.Collector
	now       func() time.Time
	newID     func() string
}

func NewOrchestrator(resolver Resolver, store persistence.StateStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		resolver: resolver,
		store:    store,
		logger:   log.WithModule("orchestrator"),
		tracer:   otelhelper.NoopTracer(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run starts the pipeline for the session, or resumes whichever pipeline the
// session already has in progress, and drives it until it needs input or
// completes.
func (o *Orchestrator) Run(ctx context.Context, sessionID, pipelineID string) (result *models.RunResult, err error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "pipeline.run",
		attribute.String(otelhelper.SessionIDKey, sessionID),
		attribute.String(otelhelper.PipelineIDKey, pipelineID),
	)
	defer func() { o.finish(span, result, err) }()

	err = persistence.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("session_id", sessionID, "pipeline_id", pipelineID)

	definition, err := o.resolvePipeline(pipelineID)
	if err != nil {
		return nil, err
	}

	state, err := o.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch {
	case state == nil:
		state, err = o.start(ctx, logger, sessionID, definition)
		if err != nil {
			return nil, err
		}
	case state.PipelineID != definition.ID:
		logger.InfoContext(ctx, "Resuming pipeline already in progress", "active_pipeline_id", state.PipelineID)

		definition, err = o.resolvePipeline(state.PipelineID)
		if err != nil {
			return nil, err
		}

		logger = o.logger.With("session_id", sessionID, "pipeline_id", definition.ID)
	}

	return o.drive(ctx, logger, definition, state)
}

// Submit hands operator input to the active form step. Invalid input is
// reported in the result and leaves the state untouched; valid input is
// consumed and the pipeline keeps going exactly like Run.
func (o *Orchestrator) Submit(ctx context.Context, sessionID, pipelineID string, input map[string]any) (result *models.RunResult, err error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "pipeline.submit",
		attribute.String(otelhelper.SessionIDKey, sessionID),
		attribute.String(otelhelper.PipelineIDKey, pipelineID),
	)
	defer func() { o.finish(span, result, err) }()

	err = persistence.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("session_id", sessionID, "pipeline_id", pipelineID)

	definition, err := o.resolvePipeline(pipelineID)
	if err != nil {
		return nil, err
	}

	state, err := o.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		return nil, persistence.NewStateError("Submit", sessionID, persistence.ErrNoActiveExecution)
	}

	if state.PipelineID != definition.ID {
		return nil, &PipelineConflictError{Requested: definition.ID, Active: state.PipelineID}
	}

	idx, err := position(definition, state)
	if err != nil {
		return nil, err
	}

	step, err := o.resolveStep(ctx, definition, state.ActiveStepID)
	if err != nil {
		return nil, err
	}

	form, ok := protocol.AsFormStep(step)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotAwaitingInput, state.ActiveStepID)
	}

	fieldErrors, err := ValidateInput(form, input)
	if err != nil {
		return nil, NewStepExecutionError(state.ActiveStepID, err)
	}

	if len(fieldErrors) > 0 {
		logger.InfoContext(ctx, "Rejected operator input", "step_id", state.ActiveStepID, "errors", len(fieldErrors))
		o.publish(ctx, sessionID, events.InputRejected{
			BaseEvent: o.baseEvent(events.InputRejectedEvent, state),
			StepID:    state.ActiveStepID,
			Errors:    fieldErrors,
		})

		return &models.RunResult{
			Status:     models.RunStatusInvalid,
			PipelineID: definition.ID,
			StepID:     state.ActiveStepID,
			Schema:     form.InputSchema(),
			Errors:     fieldErrors,
		}, nil
	}

	data, err := o.invoke(ctx, logger, definition, state, func(ctx context.Context, data map[string]any) (map[string]any, error) {
		return form.ConsumeInput(ctx, input, data)
	})
	if err != nil {
		return nil, err
	}

	next, err := o.advance(ctx, definition, state, idx, data, models.StepStatusConsumed)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Consumed operator input", "step_id", state.ActiveStepID)
	o.publish(ctx, sessionID, events.InputConsumed{
		BaseEvent:  o.baseEvent(events.InputConsumedEvent, state),
		StepID:     state.ActiveStepID,
		NextStepID: activeStepOf(next),
	})

	if next == nil {
		return o.complete(ctx, logger, definition, state, data), nil
	}

	return o.drive(ctx, logger, definition, next)
}

// Reset drops the session's execution state, whatever pipeline it belongs to.
func (o *Orchestrator) Reset(ctx context.Context, sessionID, pipelineID string) error {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "pipeline.reset",
		attribute.String(otelhelper.SessionIDKey, sessionID),
		attribute.String(otelhelper.PipelineIDKey, pipelineID),
	)
	defer span.End()

	err := persistence.ValidateSessionID(sessionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	err = o.store.Reset(ctx, sessionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to reset execution state: %w", err)
	}

	o.logger.InfoContext(ctx, "Reset pipeline", "session_id", sessionID, "pipeline_id", pipelineID)
	o.publish(ctx, sessionID, events.PipelineReset{
		BaseEvent: events.NewBaseEvent(events.PipelineResetEvent, sessionID, pipelineID),
	})

	return nil
}

// State returns the session's persisted execution state.
func (o *Orchestrator) State(ctx context.Context, sessionID string) (*models.ExecutionState, error) {
	err := persistence.ValidateSessionID(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := o.loadState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		return nil, persistence.NewStateError("State", sessionID, persistence.ErrNoActiveExecution)
	}

	return state, nil
}

// drive executes unattended steps one after another until a form step is
// reached or the pipeline runs out of steps.
func (o *Orchestrator) drive(ctx context.Context, logger *slog.Logger, definition *models.PipelineDefinition, state *models.ExecutionState) (*models.RunResult, error) {
	for {
		idx, err := position(definition, state)
		if err != nil {
			return nil, err
		}

		step, err := o.resolveStep(ctx, definition, state.ActiveStepID)
		if err != nil {
			return nil, err
		}

		if form, ok := protocol.AsFormStep(step); ok {
			logger.InfoContext(ctx, "Awaiting operator input", "step_id", state.ActiveStepID)
			o.publish(ctx, state.SessionID, events.StepAwaitingInput{
				BaseEvent: o.baseEvent(events.StepAwaitingInputEvent, state),
				StepID:    state.ActiveStepID,
			})

			return &models.RunResult{
				Status:     models.RunStatusAwaitingInput,
				PipelineID: definition.ID,
				StepID:     state.ActiveStepID,
				Schema:     form.InputSchema(),
			}, nil
		}

		started := time.Now()

		data, err := o.invoke(ctx, logger, definition, state, step.Execute)
		if err != nil {
			return nil, err
		}

		next, err := o.advance(ctx, definition, state, idx, data, models.StepStatusExecuted)
		if err != nil {
			return nil, err
		}

		logger.InfoContext(ctx, "Executed step", "step_id", state.ActiveStepID, "next_step_id", activeStepOf(next))
		o.publish(ctx, state.SessionID, events.StepExecuted{
			BaseEvent:  o.baseEvent(events.StepExecutedEvent, state),
			StepID:     state.ActiveStepID,
			NextStepID: activeStepOf(next),
			Duration:   time.Since(started),
		})

		if next == nil {
			return o.complete(ctx, logger, definition, state, data), nil
		}

		state = next
	}
}

type stepFunc func(ctx context.Context, data map[string]any) (map[string]any, error)

// invoke runs fn against a copy of the state's context inside a span. A failure
// leaves the persisted state as it was so the same step runs again next time.
func (o *Orchestrator) invoke(ctx context.Context, logger *slog.Logger, definition *models.PipelineDefinition, state *models.ExecutionState, fn stepFunc) (map[string]any, error) {
	stepID := state.ActiveStepID

	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "pipeline.step",
		attribute.String(otelhelper.SessionIDKey, state.SessionID),
		attribute.String(otelhelper.PipelineIDKey, definition.ID),
		attribute.String(otelhelper.StepIDKey, stepID),
		attribute.String(otelhelper.ExecutionIDKey, state.ID),
	)
	defer span.End()

	input := state.Clone().Context
	started := time.Now()

	data, err := fn(ctx, input)

	duration := time.Since(started)
	o.metrics.ObserveStep(definition.ID, stepID, duration, err)

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.StepIDKey, stepID))

		var passErr *ConvertPassError
		if errors.As(err, &passErr) {
			o.metrics.RecordConvertPassFailure(passErr.PassID)
		}

		logger.ErrorContext(ctx, "Step failed", "step_id", stepID, "error", err)
		o.publish(ctx, state.SessionID, events.StepFailed{
			BaseEvent: o.baseEvent(events.StepFailedEvent, state),
			StepID:    stepID,
			Error:     err.Error(),
			Duration:  duration,
		})

		return nil, NewStepExecutionError(stepID, err)
	}

	if data == nil {
		data = input
	}

	return data, nil
}

// advance records the finished step and moves the state to the next step, or
// resets it when the finished step was the last one. A nil state means the
// pipeline completed.
func (o *Orchestrator) advance(ctx context.Context, definition *models.PipelineDefinition, state *models.ExecutionState, idx int, data map[string]any, status models.StepStatus) (*models.ExecutionState, error) {
	nextStepID, ok := definition.StepAt(idx + 1)
	if !ok {
		err := o.store.Reset(ctx, state.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to reset completed execution state: %w", err)
		}

		return nil, nil
	}

	now := o.now()

	next := state.Clone()
	next.Context = data
	next.ActiveStepID = nextStepID
	next.StepIndex = idx + 1
	next.UpdatedAt = now
	next.History = append(next.History, models.StepRecord{
		StepID:    state.ActiveStepID,
		Status:    status,
		Timestamp: now,
	})

	err := o.store.SetState(ctx, state.SessionID, next)
	if err != nil {
		return nil, fmt.Errorf("failed to persist execution state: %w", err)
	}

	return next, nil
}

func (o *Orchestrator) complete(ctx context.Context, logger *slog.Logger, definition *models.PipelineDefinition, state *models.ExecutionState, data map[string]any) *models.RunResult {
	logger.InfoContext(ctx, "Pipeline completed", "execution_id", state.ID)
	o.publish(ctx, state.SessionID, events.PipelineCompleted{
		BaseEvent:     o.baseEvent(events.PipelineCompletedEvent, state),
		StepsRecorded: len(state.History) + 1,
		Duration:      o.now().Sub(state.CreatedAt),
	})

	return &models.RunResult{
		Status:     models.RunStatusCompleted,
		PipelineID: definition.ID,
		Context:    data,
	}
}

func (o *Orchestrator) start(ctx context.Context, logger *slog.Logger, sessionID string, definition *models.PipelineDefinition) (*models.ExecutionState, error) {
	if len(definition.Steps) == 0 {
		return nil, &UnknownStepError{PipelineID: definition.ID, Err: errStepNotInPipeline}
	}

	state := models.NewExecutionState(o.newID(), sessionID, definition, o.now())

	err := o.store.SetState(ctx, sessionID, state)
	if err != nil {
		return nil, fmt.Errorf("failed to persist new execution state: %w", err)
	}

	logger.InfoContext(ctx, "Started pipeline", "execution_id", state.ID, "first_step_id", state.ActiveStepID)
	o.publish(ctx, sessionID, events.PipelineStarted{
		BaseEvent:   o.baseEvent(events.PipelineStartedEvent, state),
		FirstStepID: state.ActiveStepID,
	})

	return state, nil
}

// loadState returns nil without error when the session has nothing persisted.
func (o *Orchestrator) loadState(ctx context.Context, sessionID string) (*models.ExecutionState, error) {
	persisted, err := o.store.IsPersisted(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to check execution state: %w", err)
	}

	if !persisted {
		return nil, nil
	}

	state, err := o.store.GetState(ctx, sessionID)
	if err != nil {
		if persistence.IsNoActiveExecution(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to load execution state: %w", err)
	}

	return state, nil
}

func (o *Orchestrator) resolvePipeline(pipelineID string) (*models.PipelineDefinition, error) {
	definition, err := o.resolver.ResolvePipeline(pipelineID)
	if err != nil {
		return nil, &UnknownPipelineError{PipelineID: pipelineID, Err: err}
	}

	return definition, nil
}

func (o *Orchestrator) resolveStep(ctx context.Context, definition *models.PipelineDefinition, stepID string) (protocol.Step, error) {
	step, err := o.resolver.ResolveStep(ctx, stepID)
	if err != nil {
		return nil, &UnknownStepError{PipelineID: definition.ID, StepID: stepID, Err: err}
	}

	return step, nil
}

// position locates the active step in the pipeline. StepIndex disambiguates
// steps that appear more than once.
func position(definition *models.PipelineDefinition, state *models.ExecutionState) (int, error) {
	if stepID, ok := definition.StepAt(state.StepIndex); ok && stepID == state.ActiveStepID {
		return state.StepIndex, nil
	}

	idx := definition.IndexOf(state.ActiveStepID)
	if idx < 0 {
		return -1, &UnknownStepError{PipelineID: definition.ID, StepID: state.ActiveStepID, Err: errStepNotInPipeline}
	}

	return idx, nil
}

func (o *Orchestrator) publish(ctx context.Context, sessionID string, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	err := o.publisher.Publish(ctx, sessionID, event)
	if err != nil {
		o.logger.WarnContext(ctx, "Failed to publish pipeline event",
			"session_id", sessionID, "event_type", event.GetType(), "error", err)
	}
}

func (o *Orchestrator) baseEvent(eventType events.EventType, state *models.ExecutionState) events.BaseEvent {
	base := events.NewBaseEvent(eventType, state.SessionID, state.PipelineID)
	base.ExecutionID = state.ID

	return base
}

func (o *Orchestrator) finish(span trace.Span, result *models.RunResult, err error) {
	defer span.End()

	if err != nil {
		otelhelper.SetError(span, err)

		return
	}

	if result != nil {
		span.SetAttributes(attribute.String(otelhelper.RunStatusKey, string(result.Status)))
		o.metrics.RecordRunResult(result.PipelineID, string(result.Status))
	}
}

func activeStepOf(state *models.ExecutionState) string {
	if state == nil {
		return ""
	}

	return state.ActiveStepID
}
