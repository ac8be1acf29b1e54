package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/pipeflow/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var errInvalidInput = errors.New("invalid input")

func NewListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List the registered pipelines",
		Action: withEngine(func(_ context.Context, _ *cli.Command, e *engine) error {
			for _, definition := range e.registry.Pipelines() {
				fmt.Fprintf(e.out, "%s\t%s\t%s\n", definition.ID, definition.Label, strings.Join(definition.Steps, " -> "))
			}

			return nil
		}),
	}
}

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Start or resume a pipeline",
		ArgsUsage: "<pipeline>",
		Action: withEngine(func(ctx context.Context, command *cli.Command, e *engine) error {
			pipelineID, err := pipelineArgument(command)
			if err != nil {
				return err
			}

			result, err := e.orchestrator.Run(ctx, e.sessionID, pipelineID)
			if err != nil {
				return err
			}

			return e.print(result)
		}),
	}
}

func NewSubmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Submit input to the step a pipeline is waiting on",
		ArgsUsage: "<pipeline>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "Input field as key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "json",
				Usage: "Input as a JSON object; fields given with --field override it",
			},
		},
		Action: withEngine(func(ctx context.Context, command *cli.Command, e *engine) error {
			pipelineID, err := pipelineArgument(command)
			if err != nil {
				return err
			}

			input, err := parseInput(command.String("json"), command.StringSlice("field"))
			if err != nil {
				return err
			}

			result, err := e.orchestrator.Submit(ctx, e.sessionID, pipelineID, input)
			if err != nil {
				return err
			}

			if err := e.print(result); err != nil {
				return err
			}

			if result.Status == models.RunStatusInvalid {
				return fmt.Errorf("%w for step %s", errInvalidInput, result.StepID)
			}

			return nil
		}),
	}
}

func NewResetCommand() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Drop the session's execution state",
		ArgsUsage: "<pipeline>",
		Action: withEngine(func(ctx context.Context, command *cli.Command, e *engine) error {
			pipelineID, err := pipelineArgument(command)
			if err != nil {
				return err
			}

			return e.orchestrator.Reset(ctx, e.sessionID, pipelineID)
		}),
	}
}

func NewStateCommand() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "Show the session's execution state",
		Action: withEngine(func(ctx context.Context, _ *cli.Command, e *engine) error {
			state, err := e.orchestrator.State(ctx, e.sessionID)
			if err != nil {
				return err
			}

			return e.print(state)
		}),
	}
}

// parseInput merges a JSON object with key=value pairs.
func parseInput(raw string, fields []string) (map[string]any, error) {
	input := make(map[string]any)

	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &input); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidInput, err)
		}
	}

	if input == nil {
		input = make(map[string]any)
	}

	for _, field := range fields {
		key, value, found := strings.Cut(field, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("%w: field %q is not key=value", errInvalidInput, field)
		}

		input[key] = value
	}

	return input, nil
}
