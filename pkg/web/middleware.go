package web

import (
	"time"

	"github.com/dukex/pipeflow/pkg/metrics"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// MetricsMiddleware records request counts and latencies by route pattern.
func MetricsMiddleware(collector *metrics.Collector) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}

		collector.RecordHTTPRequest(c.Method(), route, c.Response().StatusCode(), time.Since(start))

		return err
	}
}

// MetricsHandler serves the collector's registry in the Prometheus text format.
func MetricsHandler(collector *metrics.Collector) fiber.Handler {
	return adaptor.HTTPHandler(collector.Handler())
}

// RegisterRoutes mounts the pipeline API on app.
func RegisterRoutes(app *fiber.App, handlers *APIHandlers, collector *metrics.Collector) {
	p := app.Group("/pipelines")
	p.Get("/", handlers.ListPipelines)
	p.Get("/:id", handlers.GetPipeline)
	p.Post("/:id/run", handlers.RunPipeline)
	p.Post("/:id/submit", handlers.SubmitInput)
	p.Delete("/:id/state", handlers.ResetPipeline)

	app.Get("/state", handlers.GetState)
	app.Get("/health", handlers.HealthCheck)

	if collector != nil {
		app.Get("/metrics", MetricsHandler(collector))
	}
}
