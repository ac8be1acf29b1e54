// Package main provides the Pipeflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/pipeflow/pkg/metrics"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/dukex/pipeflow/pkg/pipeline"
	"github.com/dukex/pipeflow/pkg/registry"
	"github.com/dukex/pipeflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger       *slog.Logger
	orchestrator *pipeline.Orchestrator
	registry     *registry.Registry
	store        persistence.StateStore
	metrics      *metrics.Collector
	validate     *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	orchestrator *pipeline.Orchestrator,
	registry *registry.Registry,
	store persistence.StateStore,
	collector *metrics.Collector,
) *API {
	return &API{
		logger:       logger,
		orchestrator: orchestrator,
		registry:     registry,
		store:        store,
		metrics:      collector,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.orchestrator, a.registry, a.store, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", web.SessionHeader},
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	if a.metrics != nil {
		app.Use(web.MetricsMiddleware(a.metrics))
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Pipeflow API")
	})

	web.RegisterRoutes(app, handlers, a.metrics)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
