// Package models defines the core domain models for resumable pipeline execution.
package models

// PipelineDefinition is a named, ordered list of step identifiers.
type PipelineDefinition struct {
	ID    string   `json:"id"    yaml:"id"    validate:"required"`
	Label string   `json:"label" yaml:"label"`
	Steps []string `json:"steps" yaml:"steps" validate:"required,min=1,dive,required"`
}

// Clone returns a copy that does not share the step slice with the receiver.
func (p *PipelineDefinition) Clone() *PipelineDefinition {
	steps := make([]string, len(p.Steps))
	copy(steps, p.Steps)

	return &PipelineDefinition{
		ID:    p.ID,
		Label: p.Label,
		Steps: steps,
	}
}

// FirstStep returns the id of the first step, or "" for an empty pipeline.
func (p *PipelineDefinition) FirstStep() string {
	if len(p.Steps) == 0 {
		return ""
	}

	return p.Steps[0]
}

// HasStep reports whether stepID is part of the pipeline.
func (p *PipelineDefinition) HasStep(stepID string) bool {
	return p.IndexOf(stepID) >= 0
}

// IndexOf returns the position of the first occurrence of stepID, or -1.
func (p *PipelineDefinition) IndexOf(stepID string) int {
	for i, id := range p.Steps {
		if id == stepID {
			return i
		}
	}

	return -1
}

// StepAt returns the step id at position idx.
func (p *PipelineDefinition) StepAt(idx int) (string, bool) {
	if idx < 0 || idx >= len(p.Steps) {
		return "", false
	}

	return p.Steps[idx], true
}

// StepDefinition describes a registered step type.
type StepDefinition struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	// Idempotent steps may appear more than once in a pipeline.
	Idempotent bool `json:"idempotent"`
}
