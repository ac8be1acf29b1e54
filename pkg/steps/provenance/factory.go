// Package provenance provides the step that stamps the run's provenance record
// onto the context.
package provenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/google/uuid"
)

const StepID = "attach_provenance"

type Option func(*StepFactory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *StepFactory) {
		f.now = now
	}
}

// WithIDGenerator overrides how activity ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(f *StepFactory) {
		f.newID = newID
	}
}

// StepFactory creates Step instances.
type StepFactory struct {
	now   func() time.Time
	newID func() string
}

func NewStepFactory(opts ...Option) protocol.StepFactory {
	f := &StepFactory{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *StepFactory) Create(_ context.Context, logger *slog.Logger) (protocol.Step, error) {
	return &Step{
		now:    f.now,
		newID:  f.newID,
		logger: logger.With("step_id", StepID),
	}, nil
}

func (f *StepFactory) ID() string {
	return StepID
}

func (f *StepFactory) Definition() models.StepDefinition {
	return models.StepDefinition{
		ID:          StepID,
		Label:       "Attach provenance",
		Description: "Records who produced the graph and when",
	}
}
