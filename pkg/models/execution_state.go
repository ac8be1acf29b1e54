package models

import "time"

// ExecutionState is the persisted record of an in-progress pipeline run for one
// session. At most one exists per session.
type ExecutionState struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	PipelineID   string         `json:"pipeline_id"`
	ActiveStepID string         `json:"active_step_id"`
	StepIndex    int            `json:"step_index"` // position of ActiveStepID in the pipeline
	Context      map[string]any `json:"context"`
	History      []StepRecord   `json:"history,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// StepRecord is an audit entry for one step transition.
type StepRecord struct {
	StepID    string     `json:"step_id"`
	Status    StepStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// StepStatus is the outcome recorded for a step transition.
type StepStatus string

const (
	StepStatusExecuted StepStatus = "executed" // unattended step ran
	StepStatusConsumed StepStatus = "consumed" // form step consumed operator input
)

// NewExecutionState creates a state positioned at the first step of pipeline.
func NewExecutionState(id, sessionID string, pipeline *PipelineDefinition, now time.Time) *ExecutionState {
	return &ExecutionState{
		ID:           id,
		SessionID:    sessionID,
		PipelineID:   pipeline.ID,
		ActiveStepID: pipeline.FirstStep(),
		StepIndex:    0,
		Context:      make(map[string]any),
		History:      []StepRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone copies the state. The context map is copied one level deep, which is
// enough to keep a failed step from leaking top-level key changes into the
// caller's copy.
func (s *ExecutionState) Clone() *ExecutionState {
	if s == nil {
		return nil
	}

	ctxCopy := make(map[string]any, len(s.Context))
	for k, v := range s.Context {
		ctxCopy[k] = v
	}

	history := make([]StepRecord, len(s.History))
	copy(history, s.History)

	clone := *s
	clone.Context = ctxCopy
	clone.History = history

	return &clone
}
