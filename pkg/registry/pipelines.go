package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/pipeflow/pkg/models"
	"gopkg.in/yaml.v3"
)

// PipelinesFile is the on-disk format for pipeline definitions.
type PipelinesFile struct {
	Pipelines []*models.PipelineDefinition `yaml:"pipelines"`
}

// LoadPipelinesFile reads pipeline definitions from a YAML file and registers them.
func (r *Registry) LoadPipelinesFile(path string) (int, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return 0, fmt.Errorf("failed to read pipelines file %s: %w", path, err)
	}

	definitions, err := ParsePipelines(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse pipelines file %s: %w", path, err)
	}

	for _, definition := range definitions {
		if err := r.RegisterPipeline(definition); err != nil {
			return 0, err
		}
	}

	r.logger.Info("Loaded pipelines file", "path", path, "count", len(definitions))

	return len(definitions), nil
}

// ParsePipelines decodes a pipelines document, rejecting unknown fields.
func ParsePipelines(data []byte) ([]*models.PipelineDefinition, error) {
	var file PipelinesFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, err
	}

	return file.Pipelines, nil
}
