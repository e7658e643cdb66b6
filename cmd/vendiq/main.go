package main

import (
	"context"
	"os"
	"time"

	"github.com/ecampo/vendiq/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func sharedFlags() []cli.Flag {
	return []cli.Flag{
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
		&cli.BoolFlag{
			Name:  "include-soa",
			Usage: "Include the SOA attestation step",
		},
		&cli.BoolFlag{
			Name:  "include-white-list",
			Usage: "Include the white-list and insurance step",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "triggered-by",
			Usage: "Identifier recorded as the run trigger",
			Value: "cli",
		},
	}
}

func main() {
	command := &cli.Command{
		Name:                  "vendiq",
		Usage:                 "Run supplier qualification workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Aliases:   []string{"r"},
				Usage:     "Execute a full qualification run for a supplier",
				ArgsUsage: "<supplier-id>",
				Flags:     sharedFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runQualification(ctx, cmd)
				},
			},
			{
				Name:      "step",
				Aliases:   []string{"s"},
				Usage:     "Re-execute a single qualification step for a supplier",
				ArgsUsage: "<supplier-id> <step-key>",
				Flags:     sharedFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStep(ctx, cmd)
				},
			},
			{
				Name:      "schedule",
				Usage:     "Run periodic requalification sweeps on a cron schedule",
				ArgsUsage: "<cron-spec>",
				Flags:     sharedFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSchedule(ctx, cmd)
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
