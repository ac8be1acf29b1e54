// Package upload provides the form step through which an operator hands in a data file.
package upload

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
)

const StepID = "manual_upload"

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
		Label:       "Upload data file",
		Description: "Collects the path of a CSV, N-Triples or Turtle file",
	}
}
