// Package registry holds the pipeline definitions, step factories and convert
// passes known to a process. A Registry is populated once at start-up and then
// only read.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"sort"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Registry struct {
	logger        *slog.Logger
	pipelines     map[string]*models.PipelineDefinition
	stepFactories map[string]protocol.StepFactory
	passes        []protocol.ConvertPass
	passIndex     map[string]int
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		pipelines:     make(map[string]*models.PipelineDefinition),
		stepFactories: make(map[string]protocol.StepFactory),
		passIndex:     make(map[string]int),
	}
}

func (r *Registry) LoadStepPlugins(ctx context.Context, pluginsPath string) ([]protocol.StepFactory, error) {
	return loadPlugin[protocol.StepFactory](ctx, r.logger, pluginsPath, "steps", "Step")
}

func (r *Registry) LoadConvertPassPlugins(ctx context.Context, pluginsPath string) ([]protocol.ConvertPass, error) {
	return loadPlugin[protocol.ConvertPass](ctx, r.logger, pluginsPath, "passes", "ConvertPass")
}

// RegisterPipeline adds a pipeline definition. Step ids are not checked here:
// a missing step only fails when the orchestrator tries to resolve it.
func (r *Registry) RegisterPipeline(definition *models.PipelineDefinition) error {
	if definition == nil {
		return fmt.Errorf("%w: definition is nil", ErrInvalidPipeline)
	}

	if err := validate.Struct(definition); err != nil {
		return fmt.Errorf("%w: pipeline %q: %w", ErrInvalidPipeline, definition.ID, err)
	}

	if _, exists := r.pipelines[definition.ID]; exists {
		return fmt.Errorf("%w: %s", ErrPipelineAlreadyRegistered, definition.ID)
	}

	r.pipelines[definition.ID] = definition.Clone()

	return nil
}

func (r *Registry) RegisterStep(factory protocol.StepFactory) {
	r.stepFactories[factory.ID()] = factory
}

// RegisterConvertPass appends a pass to the fan-out list. Registering a pass id
// twice replaces the earlier pass in place.
func (r *Registry) RegisterConvertPass(pass protocol.ConvertPass) {
	if idx, exists := r.passIndex[pass.ID()]; exists {
		r.passes[idx] = pass

		return
	}

	r.passIndex[pass.ID()] = len(r.passes)
	r.passes = append(r.passes, pass)
}

// ResolvePipeline returns a copy of the pipeline definition.
func (r *Registry) ResolvePipeline(id string) (*models.PipelineDefinition, error) {
	definition, ok := r.pipelines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPipelineNotFound, id)
	}

	return definition.Clone(), nil
}

// ResolveStep creates a fresh step instance.
func (r *Registry) ResolveStep(ctx context.Context, id string) (protocol.Step, error) {
	factory, ok := r.stepFactories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, id)
	}

	return factory.Create(ctx, r.logger.With("step_id", id))
}

// ResolveConvertPasses returns the passes in registration order.
func (r *Registry) ResolveConvertPasses() []protocol.ConvertPass {
	passes := make([]protocol.ConvertPass, len(r.passes))
	copy(passes, r.passes)

	return passes
}

// Pipelines returns all pipeline definitions sorted by id.
func (r *Registry) Pipelines() []*models.PipelineDefinition {
	definitions := make([]*models.PipelineDefinition, 0, len(r.pipelines))
	for _, definition := range r.pipelines {
		definitions = append(definitions, definition.Clone())
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].ID < definitions[j].ID
	})

	return definitions
}

// Steps returns the definitions of all registered step types sorted by id.
func (r *Registry) Steps() []models.StepDefinition {
	definitions := make([]models.StepDefinition, 0, len(r.stepFactories))
	for _, factory := range r.stepFactories {
		definitions = append(definitions, factory.Definition())
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].ID < definitions[j].ID
	})

	return definitions
}

// Validate checks that a step repeated inside a pipeline is registered as
// idempotent. Unregistered steps are skipped.
func (r *Registry) Validate() error {
	for _, definition := range r.pipelines {
		seen := make(map[string]bool, len(definition.Steps))

		for _, stepID := range definition.Steps {
			if !seen[stepID] {
				seen[stepID] = true

				continue
			}

			factory, ok := r.stepFactories[stepID]
			if !ok {
				continue
			}

			if !factory.Definition().Idempotent {
				return fmt.Errorf("%w: pipeline %s repeats non-idempotent step %s", ErrInvalidPipeline, definition.ID, stepID)
			}
		}
	}

	return nil
}

// HealthCheck reports whether the registry can serve pipelines.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.pipelines) == 0 {
		return "no pipelines registered", false
	}

	return fmt.Sprintf("%d pipelines, %d steps, %d convert passes", len(r.pipelines), len(r.stepFactories), len(r.passes)), true
}

// loadPlugin opens every <pluginsPath>/<dir>/*/*.so and looks up symbolName.
// A missing directory yields no plugins.
func loadPlugin[T any](ctx context.Context, logger *slog.Logger, pluginsPath, dir, symbolName string) ([]T, error) {
	rootPath := filepath.Join(pluginsPath, dir)
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.InfoContext(ctx, "Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))
	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s has unexpected type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.InfoContext(ctx, "Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
