package provenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/pipeflow/pkg/rdf"
)

const (
	FieldProvenance = "provenance"
	Agent           = "pipeflow"
)

type Step struct {
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

func (s *Step) Execute(ctx context.Context, data map[string]any) (map[string]any, error) {
	triples, _, err := rdf.FromContext(data)
	if err != nil {
		return nil, err
	}

	graph, _ := data["target"].(string)
	activityID := s.newID()

	data[FieldProvenance] = map[string]any{
		"activity_id":  activityID,
		"graph":        graph,
		"generated_at": s.now().Format(time.RFC3339),
		"triple_count": len(triples),
		"agent":        Agent,
	}

	s.logger.InfoContext(ctx, "Attached provenance", "activity_id", activityID, "graph", graph)

	return data, nil
}
