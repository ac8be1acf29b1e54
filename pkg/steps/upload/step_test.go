package upload

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStep(t *testing.T) protocol.FormStep {
	t.Helper()

	step, err := NewStepFactory().Create(context.Background(), slog.Default())
	require.NoError(t, err)

	form, ok := protocol.AsFormStep(step)
	require.True(t, ok)

	return form
}

func TestStep_ValidateInput(t *testing.T) {
	t.Parallel()

	form := newStep(t)

	tests := []struct {
		name  string
		input map[string]any
		valid bool
	}{
		{"csv", map[string]any{"file": "x.csv"}, true},
		{"upper case nt", map[string]any{"file": "data/SOLUTIONS.NT"}, true},
		{"absolute path", map[string]any{"file": "/etc/solutions.nt"}, false},
		{"parent directory", map[string]any{"file": "../solutions.nt"}, false},
		{"nested parent directory", map[string]any{"file": "data/../../solutions.csv"}, false},
		{"turtle", map[string]any{"file": "x.ttl"}, true},
		{"rdf xml", map[string]any{"file": "x.rdf"}, false},
		{"no extension", map[string]any{"file": "README"}, false},
		{"blank", map[string]any{"file": "  "}, false},
		{"missing", map[string]any{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := form.ValidateInput(tt.input)
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, FieldFile, errs[0].Field)
			}
		})
	}
}

func TestStep_ConsumeInput(t *testing.T) {
	t.Parallel()

	data, err := newStep(t).ConsumeInput(context.Background(), map[string]any{"file": " x.CSV "}, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"file": "x.CSV", "format": "csv"}, data)
}
