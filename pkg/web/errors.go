package web

import (
	"errors"

	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, problemType string, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusConflict).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(err.Error())

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, problemType string, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType(problemType).
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleOrchestratorError maps orchestrator and store errors onto problem documents.
func handleOrchestratorError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, persistence.ErrInvalidSessionID):
		return badRequest(c, err.Error())

	case pipeline.IsUnknownPipeline(err):
		return notFound(c, "unknown_pipeline", err.Error())

	case persistence.IsNoActiveExecution(err):
		return conflict(c, "no_active_execution", err)

	case pipeline.IsStepNotAwaitingInput(err):
		return conflict(c, "step_not_awaiting_input", err)

	case pipeline.IsPipelineConflict(err):
		return conflict(c, "pipeline_conflict", err)

	case pipeline.IsConvertPass(err):
		return internalError(c, "convert_pass_failed", err)

	case pipeline.IsStepExecution(err):
		return internalError(c, "step_failed", err)

	case pipeline.IsUnknownStep(err):
		return internalError(c, "unknown_step", err)

	default:
		return internalError(c, "internal_error", err)
	}
}
