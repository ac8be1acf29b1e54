// Package events defines event types and structures for pipeline lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic is the bus topic carrying every pipeline lifecycle event.
const Topic = "pipeflow.pipeline.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	PipelineStartedEvent   EventType = "pipeline.started"
	PipelineCompletedEvent EventType = "pipeline.completed"
	PipelineResetEvent     EventType = "pipeline.reset"

	StepExecutedEvent      EventType = "step.executed"
	StepFailedEvent        EventType = "step.failed"
	StepAwaitingInputEvent EventType = "step.awaiting_input"
	InputConsumedEvent     EventType = "step.input.consumed"
	InputRejectedEvent     EventType = "step.input.rejected"
)

// Types lists every lifecycle event type in publication order of a typical run.
var Types = []EventType{
	PipelineStartedEvent,
	StepAwaitingInputEvent,
	InputRejectedEvent,
	InputConsumedEvent,
	StepExecutedEvent,
	StepFailedEvent,
	PipelineCompletedEvent,
	PipelineResetEvent,
}

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	SessionID   string         `json:"session_id"`
	PipelineID  string         `json:"pipeline_id"`
	ExecutionID string         `json:"execution_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type PipelineStarted struct {
	BaseEvent

	FirstStepID string `json:"first_step_id"`
}

func (p PipelineStarted) GetType() EventType {
	return PipelineStartedEvent
}

type PipelineCompleted struct {
	BaseEvent

	StepsRecorded int           `json:"steps_recorded"`
	Duration      time.Duration `json:"duration"`
}

func (p PipelineCompleted) GetType() EventType {
	return PipelineCompletedEvent
}

type PipelineReset struct {
	BaseEvent
}

func (p PipelineReset) GetType() EventType {
	return PipelineResetEvent
}

type StepExecuted struct {
	BaseEvent

	StepID     string        `json:"step_id"`
	NextStepID string        `json:"next_step_id,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (s StepExecuted) GetType() EventType {
	return StepExecutedEvent
}

type StepFailed struct {
	BaseEvent

	StepID   string        `json:"step_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (s StepFailed) GetType() EventType {
	return StepFailedEvent
}

type StepAwaitingInput struct {
	BaseEvent

	StepID string `json:"step_id"`
}

func (s StepAwaitingInput) GetType() EventType {
	return StepAwaitingInputEvent
}

type InputConsumed struct {
	BaseEvent

	StepID     string `json:"step_id"`
	NextStepID string `json:"next_step_id,omitempty"`
}

func (i InputConsumed) GetType() EventType {
	return InputConsumedEvent
}

type InputRejected struct {
	BaseEvent

	StepID string              `json:"step_id"`
	Errors []models.FieldError `json:"errors"`
}

func (i InputRejected) GetType() EventType {
	return InputRejectedEvent
}

func NewBaseEvent(eventType EventType, sessionID, pipelineID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		PipelineID: pipelineID,
		Metadata:   make(map[string]any),
	}
}
