package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence/memory"
	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/dukex/pipeflow/pkg/protocol"
)

var (
	errPipelineMissing = errors.New("pipeline not registered")
	errStepMissing     = errors.New("step not registered")
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// unattendedStep runs fn with no operator input.
type unattendedStep struct {
	id string
	fn func(ctx context.Context, data map[string]any) (map[string]any, error)
}

func (s *unattendedStep) ID() string { return s.id }

func (s *unattendedStep) Execute(ctx context.Context, data map[string]any) (map[string]any, error) {
	return s.fn(ctx, data)
}

// formStep requires a non-empty string field and copies it into the context.
type formStep struct {
	id    string
	field string
}

func (s *formStep) ID() string { return s.id }

func (s *formStep) Execute(_ context.Context, data map[string]any) (map[string]any, error) {
	return data, nil
}

func (s *formStep) InputSchema() *models.InputSchema {
	return &models.InputSchema{
		Title: s.id,
		Properties: map[string]*models.Property{
			s.field: {Type: "string", MinLength: models.IntPtr(1)},
		},
		Required: []string{s.field},
	}
}

func (s *formStep) ValidateInput(input map[string]any) []models.FieldError {
	if input[s.field] == "forbidden" {
		return []models.FieldError{{Field: s.field, Message: "value is not allowed"}}
	}

	return nil
}

func (s *formStep) ConsumeInput(_ context.Context, input map[string]any, data map[string]any) (map[string]any, error) {
	data[s.field] = input[s.field]

	return data, nil
}

type fakeResolver struct {
	pipelines map[string]*models.PipelineDefinition
	steps     map[string]func() protocol.Step
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		pipelines: map[string]*models.PipelineDefinition{},
		steps:     map[string]func() protocol.Step{},
	}
}

func (r *fakeResolver) pipeline(id string, steps ...string) {
	r.pipelines[id] = &models.PipelineDefinition{ID: id, Label: id, Steps: steps}
}

func (r *fakeResolver) step(id string, create func() protocol.Step) {
	r.steps[id] = create
}

func (r *fakeResolver) unattended(id string, fn func(ctx context.Context, data map[string]any) (map[string]any, error)) {
	r.step(id, func() protocol.Step { return &unattendedStep{id: id, fn: fn} })
}

func (r *fakeResolver) form(id, field string) {
	r.step(id, func() protocol.Step { return &formStep{id: id, field: field} })
}

func (r *fakeResolver) ResolvePipeline(id string) (*models.PipelineDefinition, error) {
	definition, ok := r.pipelines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errPipelineMissing, id)
	}

	return definition.Clone(), nil
}

func (r *fakeResolver) ResolveStep(_ context.Context, id string) (protocol.Step, error) {
	create, ok := r.steps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errStepMissing, id)
	}

	return create(), nil
}

// setKey returns an unattended step body that records key=value.
func setKey(key string, value any) func(context.Context, map[string]any) (map[string]any, error) {
	return func(_ context.Context, data map[string]any) (map[string]any, error) {
		data[key] = value

		return data, nil
	}
}

func newOrchestrator(t *testing.T, resolver pipeline.Resolver, opts ...pipeline.Option) (*pipeline.Orchestrator, *memory.StateStore) {
	t.Helper()

	store := memory.NewStateStore()
	opts = append([]pipeline.Option{
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		pipeline.WithClock(func() time.Time { return fixedNow }),
		pipeline.WithIDGenerator(func() string { return "exec-1" }),
	}, opts...)

	return pipeline.NewOrchestrator(resolver, store, opts...), store
}
