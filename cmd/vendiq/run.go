package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecampo/vendiq/pkg/cmd"
	"github.com/ecampo/vendiq/pkg/log"
	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/scheduler"
	"github.com/ecampo/vendiq/pkg/sources/filesource"
	"github.com/ecampo/vendiq/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// buildOrchestrator wires an orchestrator from the shared CLI flags. The
// returned cleanup closes persistence and the event bus.
func buildOrchestrator(ctx context.Context, command *cli.Command) (*workflow.Orchestrator, *filesource.Source, func(), error) {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("cli")

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, nil, err
	}

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
	if err != nil {
		_ = persistence.Close(ctx)

		return nil, nil, nil, err
	}

	locker, err := cmd.NewRunLock(ctx, logger, command.String("redis-url"))
	if err != nil {
		_ = persistence.Close(ctx)
		_ = eventBus.Close()

		return nil, nil, nil, err
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

	cleanup := func() {
		if err := eventBus.Close(); err != nil {
			logger.Error("Failed to close event bus", "error", err)
		}

		if err := persistence.Close(ctx); err != nil {
			logger.Error("Failed to close persistence", "error", err)
		}
	}

	return orchestrator, source, cleanup, nil
}

func runOptions(command *cli.Command) models.RunOptions {
	return models.RunOptions{
		IncludeSOA:       command.Bool("include-soa"),
		IncludeWhiteList: command.Bool("include-white-list"),
		TriggeredBy:      command.String("triggered-by"),
	}
}

func printRun(run *models.WorkflowRun) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(run)
}

func runQualification(ctx context.Context, command *cli.Command) error {
	supplierID := command.Args().First()
	if supplierID == "" {
		return errors.New("supplier id argument is required")
	}

	orchestrator, _, cleanup, err := buildOrchestrator(ctx, command)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := orchestrator.RunWorkflow(ctx, supplierID, runOptions(command))
	if err != nil && !errors.Is(err, workflow.ErrRunCanceled) {
		if run != nil {
			_ = printRun(run)
		}

		return err
	}

	return printRun(run)
}

func runStep(ctx context.Context, command *cli.Command) error {
	supplierID := command.Args().Get(0)
	stepKey := command.Args().Get(1)

	if supplierID == "" || stepKey == "" {
		return errors.New("supplier id and step key arguments are required")
	}

	orchestrator, _, cleanup, err := buildOrchestrator(ctx, command)
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := orchestrator.RunSingleStep(ctx, supplierID, stepKey, runOptions(command))
	if err != nil && !errors.Is(err, workflow.ErrRunCanceled) {
		if run != nil {
			_ = printRun(run)
		}

		return err
	}

	return printRun(run)
}

func runSchedule(ctx context.Context, command *cli.Command) error {
	spec := command.Args().First()
	if spec == "" {
		return errors.New("cron spec argument is required")
	}

	orchestrator, source, cleanup, err := buildOrchestrator(ctx, command)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := log.WithModule("cli")

	sched := scheduler.NewScheduler(orchestrator, source, logger)

	if _, err := sched.Schedule(ctx, spec, runOptions(command)); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	sched.Start()
	logger.InfoContext(ctx, "Requalification scheduler started", "spec", spec)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	return sched.Stop(ctx)
}
