// Package web provides HTTP request and response types for the pipeline API.
package web

import "github.com/dukex/pipeflow/pkg/models"

// SessionHeader carries the caller's session id on every pipeline request.
const SessionHeader = "X-Session-ID"

// SubmitInputRequest represents the request body for submitting operator input.
type SubmitInputRequest struct {
	Input map[string]any `json:"input" validate:"required"`
}

// PipelineStep describes one position of a pipeline together with the
// metadata of the step registered under that id, if any.
type PipelineStep struct {
	Position   int    `json:"position"`
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	Idempotent bool   `json:"idempotent"`
	Registered bool   `json:"registered"`
}

// PipelineResponse represents a pipeline definition as served by the API.
type PipelineResponse struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Steps []PipelineStep `json:"steps"`
}

// ListPipelinesResponse wraps the pipeline list.
type ListPipelinesResponse struct {
	Pipelines  []PipelineResponse `json:"pipelines"`
	TotalCount int                `json:"total_count"`
}

func newPipelineResponse(definition *models.PipelineDefinition, steps map[string]models.StepDefinition) PipelineResponse {
	response := PipelineResponse{
		ID:    definition.ID,
		Label: definition.Label,
		Steps: make([]PipelineStep, len(definition.Steps)),
	}

	for i, stepID := range definition.Steps {
		step, registered := steps[stepID]
		response.Steps[i] = PipelineStep{
			Position:   i,
			ID:         stepID,
			Label:      step.Label,
			Idempotent: step.Idempotent,
			Registered: registered,
		}
	}

	return response
}
