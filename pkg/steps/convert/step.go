package convert

import (
	"context"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/dukex/pipeflow/pkg/protocol"
)

// FieldAppliedPasses records which passes ran, in order.
const FieldAppliedPasses = "convert_passes"

type Step struct {
	passes []protocol.ConvertPass
	logger *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

// Execute runs all passes against data. A failing pass aborts the sequence with
// a *pipeline.ConvertPassError; passes that already ran keep their changes.
func (s *Step) Execute(ctx context.Context, data map[string]any) (map[string]any, error) {
	err := pipeline.RunConvertPasses(ctx, s.passes, data)
	if err != nil {
		return nil, err
	}

	applied := make([]string, len(s.passes))
	for i, pass := range s.passes {
		applied[i] = pass.ID()
	}

	data[FieldAppliedPasses] = applied

	s.logger.InfoContext(ctx, "Applied convert passes", "passes", applied)

	return data, nil
}
