package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/cmd"
	"github.com/dukex/pipeflow/pkg/log"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/dukex/pipeflow/pkg/registry"
	cli "github.com/urfave/cli/v3"
)

var errPipelineArgument = errors.New("pipeline id argument is required")

// engine is everything one CLI invocation needs to drive a pipeline.
type engine struct {
	logger       *slog.Logger
	registry     *registry.Registry
	store        persistence.StateStore
	orchestrator *pipeline.Orchestrator
	sessionID    string
	out          io.Writer
	closers      []func() error
}

func newEngine(ctx context.Context, command *cli.Command) (*engine, error) {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cli")

	e := &engine{
		logger:    logger,
		sessionID: command.String("session"),
		out:       command.Root().Writer,
	}

	sink, closeSink, err := cmd.NewSink(ctx, command.String("sink-url"))
	if err != nil {
		return nil, err
	}

	e.closers = append(e.closers, closeSink)

	e.registry, err = cmd.NewRegistry(ctx, logger, cmd.RegistryConfig{
		PipelinesFile: command.String("pipelines-file"),
		PluginsPath:   command.String("plugins-path"),
		UploadDir:     command.String("upload-dir"),
		Sink:          sink,
	})
	if err != nil {
		e.close(ctx)

		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	e.store, err = cmd.NewStateStore(ctx, logger, command.String("state-store-url"))
	if err != nil {
		e.close(ctx)

		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	e.closers = append(e.closers, func() error { return e.store.Close(ctx) })
	e.orchestrator = pipeline.NewOrchestrator(e.registry, e.store, pipeline.WithLogger(log.WithModule("orchestrator")))

	return e, nil
}

func (e *engine) close(ctx context.Context) {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.ErrorContext(ctx, "Failed to release resource", "error", err)
		}
	}
}

func (e *engine) print(v any) error {
	encoder := json.NewEncoder(e.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

// withEngine wraps a subcommand action with engine set-up and tear-down.
func withEngine(action func(ctx context.Context, command *cli.Command, e *engine) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		e, err := newEngine(ctx, command)
		if err != nil {
			return err
		}

		defer e.close(ctx)

		return action(ctx, command, e)
	}
}

func pipelineArgument(command *cli.Command) (string, error) {
	pipelineID := command.Args().First()
	if pipelineID == "" {
		return "", errPipelineArgument
	}

	return pipelineID, nil
}
