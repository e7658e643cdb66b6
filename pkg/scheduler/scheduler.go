// Package scheduler runs periodic supplier requalification on a cron
// schedule. Compliance documents expire, so qualified suppliers are re-run at
// a configurable cadence.
package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/runlock"
	"github.com/ecampo/vendiq/pkg/workflow"
	"github.com/robfig/cron/v3"
)

// SupplierLister enumerates the suppliers due for requalification.
type SupplierLister interface {
	SupplierIDs(ctx context.Context) ([]string, error)
}

// Scheduler drives recurring qualification runs.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *workflow.Orchestrator
	lister       SupplierLister
	logger       *slog.Logger
}

func NewScheduler(orchestrator *workflow.Orchestrator, lister SupplierLister, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		lister:       lister,
		logger:       logger.With("module", "scheduler"),
	}
}

// Schedule registers a recurring requalification sweep. The schedule uses
// the standard five-field cron format.
func (s *Scheduler) Schedule(ctx context.Context, spec string, options models.RunOptions) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		s.sweep(ctx, options)
	})
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running sweeps to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sweep requalifies every listed supplier. Suppliers with a run already in
// progress are skipped and picked up by the next sweep.
func (s *Scheduler) sweep(ctx context.Context, options models.RunOptions) {
	supplierIDs, err := s.lister.SupplierIDs(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list suppliers for requalification", "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Requalification sweep started", "suppliers", len(supplierIDs))

	for _, supplierID := range supplierIDs {
		run, err := s.orchestrator.RunWorkflow(ctx, supplierID, options)

		switch {
		case errors.Is(err, runlock.ErrRunInProgress):
			s.logger.InfoContext(ctx, "Requalification skipped, run in progress", "supplier_id", supplierID)
		case errors.Is(err, workflow.ErrRunCanceled):
			s.logger.InfoContext(ctx, "Requalification canceled", "supplier_id", supplierID, "run_id", run.ID)
		case err != nil:
			s.logger.ErrorContext(ctx, "Requalification failed", "supplier_id", supplierID, "error", err)
		default:
			s.logger.InfoContext(ctx, "Requalification completed",
				"supplier_id", supplierID, "run_id", run.ID, "outcome", *run.Outcome)
		}

		if ctx.Err() != nil {
			return
		}
	}
}
