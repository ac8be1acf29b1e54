// Package protocol defines the interfaces and contracts for pluggable pipeline steps.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
)

// Step is a unit of pipeline work. Every step can execute against the shared
// pipeline context; steps without an input schema run unattended.
type Step interface {
	// ID returns the step identifier used in pipeline definitions.
	ID() string

	// Execute performs the step's transformation and returns the updated context.
	// Returning an error leaves the execution state untouched.
	Execute(ctx context.Context, data map[string]any) (map[string]any, error)
}

// FormStep is a Step that needs operator input before the pipeline can move on.
type FormStep interface {
	Step

	// InputSchema describes the fields the operator has to supply.
	InputSchema() *models.InputSchema

	// ValidateInput returns field-level errors; an empty slice means valid.
	ValidateInput(input map[string]any) []models.FieldError

	// ConsumeInput applies validated input to the context.
	ConsumeInput(ctx context.Context, input map[string]any, data map[string]any) (map[string]any, error)
}

// StepFactory creates step instances. A fresh instance is created every time a
// step is resolved; instances carry no state between invocations.
type StepFactory interface {
	// Create creates a new step instance.
	Create(ctx context.Context, logger *slog.Logger) (Step, error)

	// ID returns the unique identifier for this step type.
	ID() string

	// Definition returns the step metadata.
	Definition() models.StepDefinition
}

// AsFormStep returns the step's form capability, if it has one.
func AsFormStep(step Step) (FormStep, bool) {
	form, ok := step.(FormStep)
	if !ok || form.InputSchema() == nil {
		return nil, false
	}

	return form, true
}
