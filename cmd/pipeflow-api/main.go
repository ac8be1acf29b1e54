package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dukex/pipeflow/pkg/cmd"
	"github.com/dukex/pipeflow/pkg/eventlog"
	"github.com/dukex/pipeflow/pkg/janitor"
	"github.com/dukex/pipeflow/pkg/log"
	"github.com/dukex/pipeflow/pkg/metrics"
	"github.com/dukex/pipeflow/pkg/otelhelper"
	"github.com/dukex/pipeflow/pkg/pipeline"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "pipeflow-api",
		Usage:                 "Run resumable pipelines over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "state-store-url",
				Usage:   "State store URL (memory://, file path, postgres://, redis://)",
				Value:   "memory://",
				Sources: cli.EnvVars("STATE_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "pipelines-file",
				Usage:   "YAML file with additional pipeline definitions",
				Sources: cli.EnvVars("PIPELINES_FILE"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing step and convert pass plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "upload-dir",
				Usage:   "Directory relative upload paths are resolved against",
				Value:   ".",
				Sources: cli.EnvVars("UPLOAD_DIR"),
			},
			&cli.StringFlag{
				Name:    "sink-url",
				Usage:   "Data sink URL for stored graphs (memory://, redis://)",
				Value:   "memory://",
				Sources: cli.EnvVars("SINK_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "janitor-schedule",
				Usage:   "Cron schedule for purging stale execution states",
				Value:   janitor.DefaultSchedule,
				Sources: cli.EnvVars("JANITOR_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "state-max-age",
				Usage:   "Execution states untouched for longer than this are purged",
				Value:   24 * time.Hour,
				Sources: cli.EnvVars("STATE_MAX_AGE"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export step spans over OTLP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Pipeflow API")

			sink, closeSink, err := cmd.NewSink(ctx, command.String("sink-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := closeSink(); err != nil {
					logger.ErrorContext(ctx, "Failed to close data sink", "error", err)
				}
			}()

			registry, err := cmd.NewRegistry(ctx, logger, cmd.RegistryConfig{
				PipelinesFile: command.String("pipelines-file"),
				PluginsPath:   command.String("plugins-path"),
				UploadDir:     command.String("upload-dir"),
				Sink:          sink,
			})
			if err != nil {
				return fmt.Errorf("failed to build registry: %w", err)
			}

			store, err := cmd.NewStateStore(ctx, logger, command.String("state-store-url"))
			if err != nil {
				return fmt.Errorf("failed to open state store: %w", err)
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close state store", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			collector := metrics.NewCollector(metrics.DefaultNamespace)

			if err := eventlog.NewListener(eventBus, log.WithModule("events"), collector).Start(ctx); err != nil {
				return fmt.Errorf("failed to start event listener: %w", err)
			}

			opts := []pipeline.Option{
				pipeline.WithLogger(log.WithModule("orchestrator")),
				pipeline.WithEventPublisher(eventBus),
				pipeline.WithMetrics(collector),
			}

			if command.Bool("otel-enabled") {
				tracer, shutdown, err := otelhelper.NewTracer(ctx, "pipeflow-api")
				if err != nil {
					return fmt.Errorf("failed to initialize tracer: %w", err)
				}

				defer func() {
					if err := shutdown(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()

				opts = append(opts, pipeline.WithTracer(tracer))
			}

			orchestrator := pipeline.NewOrchestrator(registry, store, opts...)

			sweeper, err := janitor.New(store, logger, command.String("janitor-schedule"), command.Duration("state-max-age"),
				janitor.WithMetrics(collector),
			)
			if err != nil {
				return err
			}

			if err := sweeper.Start(ctx); err != nil {
				return err
			}

			defer func() {
				if err := sweeper.Stop(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to stop janitor", "error", err)
				}
			}()

			api := NewAPI(logger, orchestrator, registry, store, collector)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Pipeflow API exited", "error", err)
		os.Exit(1)
	}
}
