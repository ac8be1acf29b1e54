package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/pipeflow/pkg/metrics"
	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence/memory"
	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/dukex/pipeflow/pkg/protocol"
	"github.com/dukex/pipeflow/pkg/registry"
	"github.com/dukex/pipeflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type askStep struct{}

func (s *askStep) ID() string { return "ask" }

func (s *askStep) Execute(_ context.Context, data map[string]any) (map[string]any, error) {
	return data, nil
}

func (s *askStep) InputSchema() *models.InputSchema {
	return &models.InputSchema{
		Properties: map[string]*models.Property{"name": {Type: "string", MinLength: models.IntPtr(1)}},
		Required:   []string{"name"},
	}
}

func (s *askStep) ValidateInput(map[string]any) []models.FieldError { return nil }

func (s *askStep) ConsumeInput(_ context.Context, input map[string]any, data map[string]any) (map[string]any, error) {
	data["name"] = input["name"]

	return data, nil
}

type funcStep struct {
	id string
	fn func(map[string]any) (map[string]any, error)
}

func (s *funcStep) ID() string { return s.id }

func (s *funcStep) Execute(_ context.Context, data map[string]any) (map[string]any, error) {
	return s.fn(data)
}

type stepFactory struct {
	id     string
	create func() protocol.Step
}

func (f *stepFactory) Create(context.Context, *slog.Logger) (protocol.Step, error) {
	return f.create(), nil
}

func (f *stepFactory) ID() string { return f.id }

func (f *stepFactory) Definition() models.StepDefinition {
	return models.StepDefinition{ID: f.id, Label: strings.ToUpper(f.id)}
}

func setupTestApp(t *testing.T) (*fiber.App, *metrics.Collector) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewRegistry(logger)

	reg.RegisterStep(&stepFactory{id: "ask", create: func() protocol.Step { return &askStep{} }})
	reg.RegisterStep(&stepFactory{id: "greet", create: func() protocol.Step {
		return &funcStep{id: "greet", fn: func(data map[string]any) (map[string]any, error) {
			data["greeting"] = "hello " + data["name"].(string)

			return data, nil
		}}
	}})
	reg.RegisterStep(&stepFactory{id: "explode", create: func() protocol.Step {
		return &funcStep{id: "explode", fn: func(map[string]any) (map[string]any, error) { return nil, errBoom }}
	}})

	require.NoError(t, reg.RegisterPipeline(&models.PipelineDefinition{ID: "hello", Label: "Hello", Steps: []string{"ask", "greet", "ask"}}))
	require.NoError(t, reg.RegisterPipeline(&models.PipelineDefinition{ID: "broken", Steps: []string{"explode"}}))
	require.NoError(t, reg.RegisterPipeline(&models.PipelineDefinition{ID: "ghost", Steps: []string{"missing"}}))
	require.NoError(t, reg.RegisterPipeline(&models.PipelineDefinition{ID: "auto", Steps: []string{"greet"}}))

	store := memory.NewStateStore()
	collector := metrics.NewCollector("")
	orchestrator := pipeline.NewOrchestrator(reg, store, pipeline.WithLogger(logger), pipeline.WithMetrics(collector))

	handlers := web.NewAPIHandlers(orchestrator, reg, store, validator.New(validator.WithRequiredStructEnabled()), logger)

	app := fiber.New()
	app.Use(web.MetricsMiddleware(collector))
	web.RegisterRoutes(app, handlers, collector)

	return app, collector
}

func doRequest(t *testing.T, app *fiber.App, method, path, sessionID string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if sessionID != "" {
		req.Header.Set(web.SessionHeader, sessionID)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decodeResult(t *testing.T, body []byte) models.RunResult {
	t.Helper()

	var result models.RunResult
	require.NoError(t, json.Unmarshal(body, &result))

	return result
}

func problemType(t *testing.T, body []byte) string {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))

	problemType, _ := problem["type"].(string)

	return problemType
}

func TestAPIHandlers_ListPipelines(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/pipelines", "", nil)
	require.Equal(t, http.StatusOK, status)

	var response web.ListPipelinesResponse
	require.NoError(t, json.Unmarshal(body, &response))

	assert.Equal(t, 4, response.TotalCount)
	assert.Equal(t, "auto", response.Pipelines[0].ID)
}

func TestAPIHandlers_GetPipeline(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/pipelines/hello", "", nil)
	require.Equal(t, http.StatusOK, status)

	var response web.PipelineResponse
	require.NoError(t, json.Unmarshal(body, &response))

	assert.Equal(t, "Hello", response.Label)
	require.Len(t, response.Steps, 3)
	assert.Equal(t, "ASK", response.Steps[0].Label)
	assert.Equal(t, 2, response.Steps[2].Position)
	assert.True(t, response.Steps[1].Registered)

	status, body = doRequest(t, app, http.MethodGet, "/pipelines/ghost", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &response))
	assert.False(t, response.Steps[0].Registered)

	status, body = doRequest(t, app, http.MethodGet, "/pipelines/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown_pipeline", problemType(t, body))
}

func TestAPIHandlers_SessionHeaderRequired(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/pipelines/hello/run"},
		{http.MethodPost, "/pipelines/hello/submit"},
		{http.MethodDelete, "/pipelines/hello/state"},
		{http.MethodGet, "/state"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			status, body := doRequest(t, app, tt.method, tt.path, "", map[string]any{"input": map[string]any{}})
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "validation_error", problemType(t, body))
		})
	}
}

func TestAPIHandlers_RunSubmitFlow(t *testing.T) {
	t.Parallel()

	app, collector := setupTestApp(t)
	const session = "session-flow"

	status, body := doRequest(t, app, http.MethodPost, "/pipelines/hello/run", session, nil)
	require.Equal(t, http.StatusOK, status)

	result := decodeResult(t, body)
	assert.Equal(t, models.RunStatusAwaitingInput, result.Status)
	assert.Equal(t, "ask", result.StepID)
	require.NotNil(t, result.Schema)

	status, body = doRequest(t, app, http.MethodPost, "/pipelines/hello/submit", session, web.SubmitInputRequest{
		Input: map[string]any{"name": ""},
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	result = decodeResult(t, body)
	assert.Equal(t, models.RunStatusInvalid, result.Status)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "name", result.Errors[0].Field)

	status, body = doRequest(t, app, http.MethodPost, "/pipelines/hello/submit", session, web.SubmitInputRequest{
		Input: map[string]any{"name": "ada"},
	})
	require.Equal(t, http.StatusOK, status)

	result = decodeResult(t, body)
	assert.Equal(t, models.RunStatusAwaitingInput, result.Status)
	assert.Equal(t, "ask", result.StepID)

	status, body = doRequest(t, app, http.MethodGet, "/state", session, nil)
	require.Equal(t, http.StatusOK, status)

	var state models.ExecutionState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, 2, state.StepIndex)
	assert.Equal(t, "hello ada", state.Context["greeting"])

	status, body = doRequest(t, app, http.MethodPost, "/pipelines/hello/submit", session, web.SubmitInputRequest{
		Input: map[string]any{"name": "grace"},
	})
	require.Equal(t, http.StatusOK, status)

	result = decodeResult(t, body)
	assert.Equal(t, models.RunStatusCompleted, result.Status)
	assert.Equal(t, "grace", result.Context["name"])

	status, _ = doRequest(t, app, http.MethodGet, "/state", session, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doRequest(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "pipeflow_run_results_total")
	assert.Contains(t, string(body), `route="/pipelines/:id/submit"`)
	assert.NotNil(t, collector.Registry())
}

func TestAPIHandlers_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		prepare    string
		wantStatus int
		wantType   string
	}{
		{"unknown pipeline", http.MethodPost, "/pipelines/nope/run", nil, "", http.StatusNotFound, "unknown_pipeline"},
		{"submit without run", http.MethodPost, "/pipelines/hello/submit", web.SubmitInputRequest{Input: map[string]any{"name": "x"}}, "", http.StatusConflict, "no_active_execution"},
		{"submit to other pipeline", http.MethodPost, "/pipelines/auto/submit", web.SubmitInputRequest{Input: map[string]any{}}, "/pipelines/hello/run", http.StatusConflict, "pipeline_conflict"},
		{"submit missing input", http.MethodPost, "/pipelines/hello/submit", map[string]any{}, "/pipelines/hello/run", http.StatusBadRequest, "validation_error"},
		{"step failure", http.MethodPost, "/pipelines/broken/run", nil, "", http.StatusInternalServerError, "step_failed"},
		{"unknown step", http.MethodPost, "/pipelines/ghost/run", nil, "", http.StatusInternalServerError, "unknown_step"},
		{"invalid session", http.MethodPost, "/pipelines/hello/run", nil, "", http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			session := "session-" + strings.ReplaceAll(tt.name, " ", "-")
			if tt.name == "invalid session" {
				session = "../escape"
			}

			if tt.prepare != "" {
				status, _ := doRequest(t, app, http.MethodPost, tt.prepare, session, nil)
				require.Equal(t, http.StatusOK, status)
			}

			status, body := doRequest(t, app, tt.method, tt.path, session, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, problemType(t, body))
		})
	}
}

func TestAPIHandlers_ResetPipeline(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	const session = "session-reset"

	status, _ := doRequest(t, app, http.MethodDelete, "/pipelines/hello/state", session, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodPost, "/pipelines/hello/run", session, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/pipelines/hello/state", session, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/state", session, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_ResetPipeline_Unregistered(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)
	const session = "session-retired"

	status, _ := doRequest(t, app, http.MethodPost, "/pipelines/hello/run", session, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/pipelines/retired/state", session, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/state", session, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}
