// Package convert provides the step that runs every registered convert pass
// over the working graph.
package convert

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
)

const StepID = "convert_to_adms2"

// PassResolver supplies the convert passes in the order they must run.
type PassResolver interface {
	ResolveConvertPasses() []protocol.ConvertPass
}

// StepFactory creates Step instances.
type StepFactory struct {
	resolver PassResolver
}

func NewStepFactory(resolver PassResolver) protocol.StepFactory {
	return &StepFactory{resolver: resolver}
}

func (f *StepFactory) Create(_ context.Context, logger *slog.Logger) (protocol.Step, error) {
	return &Step{
		passes: f.resolver.ResolveConvertPasses(),
		logger: logger.With("step_id", StepID),
	}, nil
}

func (f *StepFactory) ID() string {
	return StepID
}

func (f *StepFactory) Definition() models.StepDefinition {
	return models.StepDefinition{
		ID:          StepID,
		Label:       "Convert to ADMS v2",
		Description: "Applies every registered convert pass to the working graph",
		Idempotent:  true,
	}
}
