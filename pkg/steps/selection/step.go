package selection

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/dukex/pipeflow/pkg/models"
)

const (
	FieldTarget = "target"
	maxTarget   = 200
)

var targetPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

type Step struct {
	logger *slog.Logger
}

func (s *Step) ID() string {
	return StepID
}

// Execute leaves the context alone; all the work happens in ConsumeInput.
func (s *Step) Execute(_ context.Context, data map[string]any) (map[string]any, error) {
	return data, nil
}

func (s *Step) InputSchema() *models.InputSchema {
	return &models.InputSchema{
		Title:       "Target graph",
		Description: "Graph the pipeline reads from and writes to",
		Properties: map[string]*models.Property{
			FieldTarget: {
				Type:        "string",
				Description: "Graph name",
				MinLength:   models.IntPtr(1),
				MaxLength:   models.IntPtr(maxTarget),
				Pattern:     targetPattern.String(),
			},
		},
		Required: []string{FieldTarget},
	}
}

func (s *Step) ValidateInput(input map[string]any) []models.FieldError {
	target, ok := input[FieldTarget].(string)

	switch {
	case !ok || target == "":
		return []models.FieldError{{Field: FieldTarget, Message: "target is required"}}
	case len(target) > maxTarget:
		return []models.FieldError{{Field: FieldTarget, Message: "target is too long"}}
	case !targetPattern.MatchString(target):
		return []models.FieldError{{Field: FieldTarget, Message: "target may only contain letters, digits and _ . : -"}}
	}

	return nil
}

func (s *Step) ConsumeInput(ctx context.Context, input map[string]any, data map[string]any) (map[string]any, error) {
	target, _ := input[FieldTarget].(string)
	data[FieldTarget] = target

	s.logger.DebugContext(ctx, "Selected target graph", "target", target)

	return data, nil
}
