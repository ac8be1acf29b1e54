package log

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/dukex/pipeflow/pkg/rdf"
)

type Step struct {
	logger *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

// Execute logs the context keys and the working graph size. The context is
// returned unchanged.
func (s *Step) Execute(ctx context.Context, data map[string]any) (map[string]any, error) {
	keys := slices.Sorted(maps.Keys(data))

	attrs := []any{"keys", keys}
	if triples, ok, err := rdf.FromContext(data); ok && err == nil {
		attrs = append(attrs, "triples", len(triples))
	}

	if target, ok := data["target"].(string); ok {
		attrs = append(attrs, "target", target)
	}

	s.logger.InfoContext(ctx, "Pipeline context", attrs...)

	return data, nil
}
