// Package triples provides the step that loads an uploaded file into the
// pipeline's working graph.
package triples

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
)

const StepID = "load_triples"

// StepFactory creates Step instances. File paths are resolved inside baseDir,
// or the working directory when it is empty.
type StepFactory struct {
	baseDir string
}

func NewStepFactory(baseDir string) protocol.StepFactory {
	return &StepFactory{baseDir: baseDir}
}

func (f *StepFactory) Create(_ context.Context, logger *slog.Logger) (protocol.Step, error) {
	return &Step{
		baseDir: f.baseDir,
		logger:  logger.With("step_id", StepID),
	}, nil
}

func (f *StepFactory) ID() string {
	return StepID
}

func (f *StepFactory) Definition() models.StepDefinition {
	return models.StepDefinition{
		ID:          StepID,
		Label:       "Load triples",
		Description: "Parses the uploaded file into the working graph",
		Idempotent:  true,
	}
}
