package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/rdf"
)

const FieldStoredGraph = "stored_graph"

var ErrMissingTarget = errors.New("no target graph selected")

type Step struct {
	sink   protocol.DataSink
	logger *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

// Execute overwrites the graph named by context.target with the working graph.
func (s *Step) Execute(ctx context.Context, data map[string]any) (map[string]any, error) {
	target, _ := data["target"].(string)
	if target == "" {
		return nil, ErrMissingTarget
	}

	triples, _, err := rdf.FromContext(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := rdf.WriteNTriples(&buf, triples); err != nil {
		return nil, fmt.Errorf("failed to serialise graph: %w", err)
	}

	key := GraphKey(target)
	if err := s.sink.Put(ctx, key, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to store graph %s: %w", target, err)
	}

	data[FieldStoredGraph] = key

	s.logger.InfoContext(ctx, "Stored graph", "key", key, "triples", len(triples))

	return data, nil
}

// GraphKey is the sink key a graph is stored under.
func GraphKey(target string) string {
	return "graph:" + target
}
