// Package log provides the step that reports the pipeline context to the log.
package log

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
)

const StepID = "log"

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
		Label:       "Log",
		Description: "Logs a summary of the pipeline context",
		Idempotent:  true,
	}
}
