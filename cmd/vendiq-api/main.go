package main

import (
	"context"
	"os"
	"time"

	"github.com/ecampo/vendiq/pkg/cmd"
	"github.com/ecampo/vendiq/pkg/log"
	"github.com/ecampo/vendiq/pkg/sources/filesource"
	"github.com/ecampo/vendiq/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "vendiq-api",
		Usage:                 "Trigger and inspect supplier qualification runs",
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
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "data-path",
				Usage:   "Directory holding supplier records, extractions and questionnaires",
				Value:   "./data",
				Sources: cli.EnvVars("DATA_PATH"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the per-supplier run lock (empty for in-process lock)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "step-timeout",
				Usage:   "Maximum duration of a single qualification step",
				Value:   120 * time.Second,
				Sources: cli.EnvVars("STEP_TIMEOUT"),
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

			logger.InfoContext(ctx, "Initializing vendiq API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locker, err := cmd.NewRunLock(ctx, logger, command.String("redis-url"))
			if err != nil {
				return err
			}

			source := filesource.NewSource(command.String("data-path"))

			orchestrator := workflow.NewOrchestrator(workflow.Config{
				Persistence:    persistence,
				Directory:      source,
				Documents:      source,
				Questionnaires: source,
				Locker:         locker,
				EventBus:       eventBus,
				Logger:         logger,
				StepTimeout:    command.Duration("step-timeout"),
			})

			api := NewAPI(logger, persistence, orchestrator)

			return api.Start(int(command.Int("port")))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
