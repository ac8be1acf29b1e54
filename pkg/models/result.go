package models

// RunStatus discriminates the outcome of a run or submit invocation.
type RunStatus string

const (
	RunStatusAwaitingInput RunStatus = "awaiting_input"
	RunStatusCompleted     RunStatus = "completed"
	RunStatusInvalid       RunStatus = "invalid"
)

// FieldError is a field-level validation problem with operator input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RunResult is what the orchestrator hands back to the caller after driving a
// pipeline as far as it can go without operator input.
type RunResult struct {
	Status     RunStatus      `json:"status"`
	PipelineID string         `json:"pipeline_id"`
	StepID     string         `json:"step_id,omitempty"`
	Schema     *InputSchema   `json:"schema,omitempty"`
	Errors     []FieldError   `json:"errors,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// AwaitingInput reports whether the pipeline is paused on a form step.
func (r *RunResult) AwaitingInput() bool {
	return r.Status == RunStatusAwaitingInput
}

// Completed reports whether the pipeline finished and its state was reset.
func (r *RunResult) Completed() bool {
	return r.Status == RunStatusCompleted
}
