package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := NewApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pipeflow:", err)
		os.Exit(1)
	}
}

// NewApp builds the operator CLI. Flags declared here are inherited by every
// subcommand.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:                  "pipeflow",
		Usage:                 "Run resumable pipelines from the terminal",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session the execution state belongs to",
				Value:   "default",
				Sources: cli.EnvVars("PIPEFLOW_SESSION"),
			},
			&cli.StringFlag{
				Name:    "state-store-url",
				Usage:   "State store URL (file path, postgres://, redis://)",
				Value:   "./.pipeflow",
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
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewListCommand(),
			NewRunCommand(),
			NewSubmitCommand(),
			NewResetCommand(),
			NewStateCommand(),
		},
	}
}
