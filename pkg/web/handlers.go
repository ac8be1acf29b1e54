// Package web provides HTTP handlers and REST API endpoints for running pipelines.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/pipeflow/pkg/models"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/dukex/pipeflow/pkg/registry"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	orchestrator *pipeline.Orchestrator
	registry     *registry.Registry
	store        persistence.StateStore
	validator    *validator.Validate
	logger       *slog.Logger
}

func NewAPIHandlers(
	orchestrator *pipeline.Orchestrator,
	registry *registry.Registry,
	store persistence.StateStore,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		orchestrator: orchestrator,
		registry:     registry,
		store:        store,
		validator:    validator,
		logger:       logger,
	}
}

func (h *APIHandlers) ListPipelines(c fiber.Ctx) error {
	steps := h.stepIndex()
	definitions := h.registry.Pipelines()

	pipelines := make([]PipelineResponse, len(definitions))
	for i, definition := range definitions {
		pipelines[i] = newPipelineResponse(definition, steps)
	}

	return c.JSON(ListPipelinesResponse{
		Pipelines:  pipelines,
		TotalCount: len(pipelines),
	})
}

func (h *APIHandlers) GetPipeline(c fiber.Ctx) error {
	id := c.Params("id")

	definition, err := h.registry.ResolvePipeline(id)
	if err != nil {
		return notFound(c, "unknown_pipeline", "Pipeline not found")
	}

	return c.JSON(newPipelineResponse(definition, h.stepIndex()))
}

func (h *APIHandlers) RunPipeline(c fiber.Ctx) error {
	sessionID := c.Get(SessionHeader)
	if sessionID == "" {
		return badRequest(c, SessionHeader+" header is required")
	}

	result, err := h.orchestrator.Run(c.Context(), sessionID, c.Params("id"))
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) SubmitInput(c fiber.Ctx) error {
	sessionID := c.Get(SessionHeader)
	if sessionID == "" {
		return badRequest(c, SessionHeader+" header is required")
	}

	var req SubmitInputRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.orchestrator.Submit(c.Context(), sessionID, c.Params("id"), req.Input)
	if err != nil {
		return handleOrchestratorError(c, err)
	}

	if result.Status == models.RunStatusInvalid {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ResetPipeline(c fiber.Ctx) error {
	sessionID := c.Get(SessionHeader)
	if sessionID == "" {
		return badRequest(c, SessionHeader+" header is required")
	}

	if err := h.orchestrator.Reset(c.Context(), sessionID, c.Params("id")); err != nil {
		return handleOrchestratorError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetState(c fiber.Ctx) error {
	sessionID := c.Get(SessionHeader)
	if sessionID == "" {
		return badRequest(c, SessionHeader+" header is required")
	}

	state, err := h.orchestrator.State(c.Context(), sessionID)
	if err != nil {
		if persistence.IsNoActiveExecution(err) {
			return notFound(c, "no_active_execution", "No active execution for session")
		}

		return handleOrchestratorError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()

	storeCheck, storeOk := "ok", true
	if err := h.store.HealthCheck(c.Context()); err != nil {
		h.logger.WarnContext(c.Context(), "State store health check failed", "error", err)
		storeCheck, storeOk = err.Error(), false
	}

	status := "unhealthy"
	message := "Pipeflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && storeOk {
		status = "healthy"
		message = "Pipeflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":    registryCheck,
			"state_store": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) stepIndex() map[string]models.StepDefinition {
	definitions := h.registry.Steps()

	index := make(map[string]models.StepDefinition, len(definitions))
	for _, definition := range definitions {
		index[definition.ID] = definition
	}

	return index
}
