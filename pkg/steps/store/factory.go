// Package store provides the step that writes the working graph into the data sink.
package store

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
)

const StepID = "store_graph"

// StepFactory creates Step instances bound to one sink.
type StepFactory struct {
	sink protocol.DataSink
}

func NewStepFactory(sink protocol.DataSink) protocol.StepFactory {
	return &StepFactory{sink: sink}
}

func (f *StepFactory) Create(_ context.Context, logger *slog.Logger) (protocol.Step, error) {
	return &Step{
		sink:   f.sink,
		logger: logger.With("step_id", StepID),
	}, nil
}

func (f *StepFactory) ID() string {
	return StepID
}

func (f *StepFactory) Definition() models.StepDefinition {
	return models.StepDefinition{
		ID:          StepID,
		Label:       "Store graph",
		Description: "Writes the working graph to the data sink as N-Triples",
		Idempotent:  true,
	}
}
