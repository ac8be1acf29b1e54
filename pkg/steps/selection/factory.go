// Package selection provides the form step that picks the graph a pipeline works on.
package selection

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
)

const StepID = "pipeline_selection"

// StepFactory creates Step instances.
type StepFactory struct{}

func NewStepFactory() protocol.StepFactory {
	return &StepFactory{}
}

func (f *StepFactory) Create(_ context.Context, logger *slog.Logger) (protocol.Step, error) {
	return &Step{logger: logger.With("step_id", StepID)}, nil
}

func (f *StepFactory) ID() string {
	return StepID
}

func (f *StepFactory) Definition() models.StepDefinition {
	return models.StepDefinition{
		ID:          StepID,
		Label:       "Select target graph",
		Description: "Asks the operator which graph the pipeline should work on",
	}
}
