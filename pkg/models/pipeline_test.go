package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	requiredTag = "required"
	minTag      = "min"
)

func validationTags(t *testing.T, err error) map[string]string {
	t.Helper()

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	tags := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		tags[fieldErr.Field()] = fieldErr.Tag()
	}

	return tags
}

func TestPipelineDefinition_Validation(t *testing.T) {
	t.Parallel()

	validate := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name       string
		definition PipelineDefinition
		wantField  string
		wantTag    string
	}{
		{"valid", PipelineDefinition{ID: "convert", Steps: []string{"a", "b"}}, "", ""},
		{"missing id", PipelineDefinition{Steps: []string{"a"}}, "ID", requiredTag},
		{"nil steps", PipelineDefinition{ID: "convert"}, "Steps", requiredTag},
		{"empty steps", PipelineDefinition{ID: "convert", Steps: []string{}}, "Steps", minTag},
		{"blank step id", PipelineDefinition{ID: "convert", Steps: []string{"a", ""}}, "Steps[1]", requiredTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validate.Struct(&tt.definition)
			if tt.wantField == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, tt.wantTag, validationTags(t, err)[tt.wantField])
		})
	}
}

func TestPipelineDefinition_Navigation(t *testing.T) {
	t.Parallel()

	definition := &PipelineDefinition{ID: "p", Steps: []string{"select", "convert", "select"}}

	assert.Equal(t, "select", definition.FirstStep())
	assert.True(t, definition.HasStep("convert"))
	assert.False(t, definition.HasStep("store"))
	assert.Equal(t, 0, definition.IndexOf("select"))
	assert.Equal(t, -1, definition.IndexOf("store"))

	stepID, ok := definition.StepAt(2)
	assert.True(t, ok)
	assert.Equal(t, "select", stepID)

	_, ok = definition.StepAt(3)
	assert.False(t, ok)

	_, ok = definition.StepAt(-1)
	assert.False(t, ok)

	assert.Empty(t, (&PipelineDefinition{ID: "empty"}).FirstStep())
}

func TestPipelineDefinition_Clone(t *testing.T) {
	t.Parallel()

	original := &PipelineDefinition{ID: "p", Label: "P", Steps: []string{"a", "b"}}
	clone := original.Clone()

	clone.Steps[0] = "changed"

	assert.Equal(t, "a", original.Steps[0])
	assert.Equal(t, original.ID, clone.ID)
	assert.Equal(t, original.Label, clone.Label)
}

func TestExecutionState_New(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	state := NewExecutionState("exec-1", "session-1", &PipelineDefinition{ID: "p", Steps: []string{"a", "b"}}, now)

	assert.Equal(t, "exec-1", state.ID)
	assert.Equal(t, "session-1", state.SessionID)
	assert.Equal(t, "p", state.PipelineID)
	assert.Equal(t, "a", state.ActiveStepID)
	assert.Equal(t, 0, state.StepIndex)
	assert.NotNil(t, state.Context)
	assert.Empty(t, state.History)
	assert.Equal(t, now, state.CreatedAt)
	assert.Equal(t, now, state.UpdatedAt)
}

func TestExecutionState_Clone(t *testing.T) {
	t.Parallel()

	state := &ExecutionState{
		ID:           "exec-1",
		PipelineID:   "p",
		ActiveStepID: "b",
		StepIndex:    1,
		Context:      map[string]any{"target": "graph-1"},
		History:      []StepRecord{{StepID: "a", Status: StepStatusExecuted}},
	}

	clone := state.Clone()
	clone.Context["target"] = "graph-2"
	clone.Context["extra"] = true
	clone.History[0].StepID = "changed"

	assert.Equal(t, "graph-1", state.Context["target"])
	assert.NotContains(t, state.Context, "extra")
	assert.Equal(t, "a", state.History[0].StepID)
	assert.Equal(t, 1, clone.StepIndex)

	var nilState *ExecutionState
	assert.Nil(t, nilState.Clone())
}

func TestExecutionState_JSON(t *testing.T) {
	t.Parallel()

	state := &ExecutionState{
		ID:           "exec-1",
		SessionID:    "s",
		PipelineID:   "p",
		ActiveStepID: "b",
		StepIndex:    1,
		Context:      map[string]any{"count": 3},
	}

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "b", raw["active_step_id"])
	assert.InDelta(t, 1, raw["step_index"], 0)
	assert.NotContains(t, raw, "history")
}

func TestInputSchema_ToJSONSchema(t *testing.T) {
	t.Parallel()

	schema := &InputSchema{
		Title: "Select target",
		Properties: map[string]*Property{
			"target": {Type: "string", MinLength: IntPtr(1), MaxLength: IntPtr(20), Pattern: "^[a-z]+$"},
			"mode":   {Type: "string", Enum: []any{"fast", "full"}},
			"tags":   {Type: "array", Items: &Property{Type: "string"}},
		},
		Required: []string{"target"},
	}

	doc := schema.ToJSONSchema()

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "Select target", doc["title"])
	assert.Equal(t, []any{"target"}, doc["required"])

	properties, ok := doc["properties"].(map[string]any)
	require.True(t, ok)

	target, ok := properties["target"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, target["minLength"])
	assert.Equal(t, 20, target["maxLength"])
	assert.Equal(t, "^[a-z]+$", target["pattern"])

	mode, ok := properties["mode"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"fast", "full"}, mode["enum"])

	tags, ok := properties["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "string"}, tags["items"])
}

func TestInputSchema_EmptyDocument(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]any{"type": "object"}, (&InputSchema{}).ToJSONSchema())
}

func TestRunResult_Status(t *testing.T) {
	t.Parallel()

	awaiting := &RunResult{Status: RunStatusAwaitingInput}
	completed := &RunResult{Status: RunStatusCompleted}
	invalid := &RunResult{Status: RunStatusInvalid}

	assert.True(t, awaiting.AwaitingInput())
	assert.False(t, awaiting.Completed())
	assert.True(t, completed.Completed())
	assert.False(t, invalid.AwaitingInput())
	assert.False(t, invalid.Completed())
}
