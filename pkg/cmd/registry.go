// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/registry"
)

// RegistryConfig names everything NewRegistry loads besides the built-ins.
type RegistryConfig struct {
	PipelinesFile string
	PluginsPath   string
	UploadDir     string
	Sink          protocol.DataSink
}

func registerStepPlugins(ctx context.Context, reg *registry.Registry, pluginsPath string) error {
	stepPlugins, err := reg.LoadStepPlugins(ctx, pluginsPath)
	if err != nil {
		return err
	}

	for _, plugin := range stepPlugins {
		reg.RegisterStep(plugin)
	}

	return nil
}

func registerConvertPassPlugins(ctx context.Context, reg *registry.Registry, pluginsPath string) error {
	passPlugins, err := reg.LoadConvertPassPlugins(ctx, pluginsPath)
	if err != nil {
		return err
	}

	for _, plugin := range passPlugins {
		reg.RegisterConvertPass(plugin)
	}

	return nil
}

// NewRegistry builds the process registry: built-in steps, passes and
// pipelines, then plugins, then the operator's pipelines file.
func NewRegistry(ctx context.Context, log *slog.Logger, config RegistryConfig) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	reg.RegisterDefaultSteps(config.Sink, config.UploadDir)
	reg.RegisterDefaultConvertPasses()

	if err := reg.RegisterDefaultPipelines(); err != nil {
		return nil, err
	}

	if config.PluginsPath != "" {
		if err := registerStepPlugins(ctx, reg, config.PluginsPath); err != nil {
			return nil, fmt.Errorf("failed to load step plugins: %w", err)
		}

		if err := registerConvertPassPlugins(ctx, reg, config.PluginsPath); err != nil {
			return nil, fmt.Errorf("failed to load convert pass plugins: %w", err)
		}
	}

	if config.PipelinesFile != "" {
		if _, err := reg.LoadPipelinesFile(config.PipelinesFile); err != nil {
			return nil, err
		}
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	return reg, nil
}
