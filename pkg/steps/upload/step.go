package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dukex/pipeflow/pkg/models"
)

const (
	FieldFile   = "file"
	FieldFormat = "format"
)

// Extensions lists the accepted file extensions.
var Extensions = []string{".csv", ".nt", ".ttl"}

type Step struct {
	logger *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

func (s *Step) Execute(_ context.Context, data map[string]any) (map[string]any, error) {
	return data, nil
}

func (s *Step) InputSchema() *models.InputSchema {
	return &models.InputSchema{
		Title: "Upload",
		Properties: map[string]*models.Property{
			FieldFile: {
				Type:        "string",
				Description: fmt.Sprintf("Path of the file to import, relative to the upload directory (%s)", strings.Join(Extensions, ", ")),
				MinLength:   models.IntPtr(1),
			},
		},
		Required: []string{FieldFile},
	}
}

func (s *Step) ValidateInput(input map[string]any) []models.FieldError {
	file, ok := input[FieldFile].(string)
	if !ok || strings.TrimSpace(file) == "" {
		return []models.FieldError{{Field: FieldFile, Message: "file is required"}}
	}

	if !filepath.IsLocal(strings.TrimSpace(file)) {
		return []models.FieldError{{Field: FieldFile, Message: "file must be a relative path inside the upload directory"}}
	}

	if !slices.Contains(Extensions, Extension(file)) {
		return []models.FieldError{{
			Field:   FieldFile,
			Message: fmt.Sprintf("unsupported file type, expected one of %s", strings.Join(Extensions, ", ")),
		}}
	}

	return nil
}

func (s *Step) ConsumeInput(ctx context.Context, input map[string]any, data map[string]any) (map[string]any, error) {
	file, _ := input[FieldFile].(string)
	file = strings.TrimSpace(file)

	data[FieldFile] = file
	data[FieldFormat] = strings.TrimPrefix(Extension(file), ".")

	s.logger.InfoContext(ctx, "Received upload", "file", file)

	return data, nil
}

// Extension returns the lower-cased extension of path, including the dot.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
