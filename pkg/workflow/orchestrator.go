// Package workflow implements the qualification run orchestrator: step
// sequencing, cancellation, timeouts, outcome policy and lifecycle events.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecampo/vendiq/pkg/eventbus"
	"github.com/ecampo/vendiq/pkg/events"
	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/otelhelper"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/ecampo/vendiq/pkg/protocol"
	"github.com/ecampo/vendiq/pkg/runlock"
	"github.com/ecampo/vendiq/pkg/steps"
	"github.com/ecampo/vendiq/pkg/verification"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// WorkflowTypeQualification is the full nine-step qualification run.
	WorkflowTypeQualification = "supplier_qualification"
	// WorkflowTypeSingleStep is a targeted re-verification of one step.
	WorkflowTypeSingleStep = "single_step"

	defaultStepTimeout = 120 * time.Second
)

// ErrRunCanceled is returned by RunWorkflow when the run stopped because of a
// cancellation request. The persisted run carries the partial results.
var ErrRunCanceled = errors.New("qualification run canceled")

// Config wires an Orchestrator. Persistence, Directory, Documents,
// Questionnaires and Logger are required; the rest default to inert
// implementations.
type Config struct {
	Persistence    persistence.Persistence
	Directory      protocol.SupplierDirectory
	Documents      protocol.DocumentSource
	Questionnaires protocol.QuestionnaireSource
	Reasoner       protocol.Reasoner
	Locker         runlock.Locker
	EventBus       eventbus.EventPublisher
	Tracer         trace.Tracer
	Logger         *slog.Logger
	StepTimeout    time.Duration
}

// Orchestrator drives qualification runs: it owns run records end to end and
// is the only writer of run status.
type Orchestrator struct {
	deps        *steps.Dependencies
	persistence persistence.Persistence
	directory   protocol.SupplierDirectory
	locker      runlock.Locker
	eventBus    eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
	stepTimeout time.Duration
	now         func() time.Time
}

func NewOrchestrator(config Config) *Orchestrator {
	logger := config.Logger.With("module", "orchestrator")

	locker := config.Locker
	if locker == nil {
		locker = runlock.NewNoop()
	}

	tracer := config.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("vendiq")
	}

	stepTimeout := config.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}

	return &Orchestrator{
		deps: &steps.Dependencies{
			Persistence:    config.Persistence,
			Directory:      config.Directory,
			Documents:      config.Documents,
			Questionnaires: config.Questionnaires,
			Engine:         verification.NewEngine(config.Reasoner, config.Logger),
			Logger:         logger,
		},
		persistence: config.Persistence,
		directory:   config.Directory,
		locker:      locker,
		eventBus:    config.EventBus,
		tracer:      tracer,
		logger:      logger,
		stepTimeout: stepTimeout,
		now:         time.Now,
	}
}

// RunWorkflow executes a full qualification run for one supplier. It returns
// the persisted run in its terminal state. A second concurrent run for the
// same supplier is rejected with runlock.ErrRunInProgress before any record
// is created.
func (o *Orchestrator) RunWorkflow(ctx context.Context, supplierID string, options models.RunOptions) (*models.WorkflowRun, error) {
	release, err := o.locker.Acquire(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	defer release()

	run, state, err := o.startRun(ctx, supplierID, WorkflowTypeQualification, options)
	if err != nil {
		return nil, err
	}

	sequence := steps.Sequence(o.deps, options)

	return o.executeSequence(ctx, run, state, sequence)
}

// RunSingleStep re-executes one step in an isolated run. The step gets order
// index 1 regardless of its position in a full run, and the outcome policy
// applies to that single result.
func (o *Orchestrator) RunSingleStep(ctx context.Context, supplierID, stepKey string, options models.RunOptions) (*models.WorkflowRun, error) {
	step, err := steps.ByKey(o.deps, stepKey)
	if err != nil {
		return nil, err
	}

	release, err := o.locker.Acquire(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	defer release()

	run, state, err := o.startRun(ctx, supplierID, WorkflowTypeSingleStep, options)
	if err != nil {
		return nil, err
	}

	return o.executeSequence(ctx, run, state, []steps.Step{step})
}

// CancelRun requests cancellation of a running run by persisting the canceled
// status. The executing orchestrator observes the persisted status before its
// next step and stops. Terminal runs are left untouched.
func (o *Orchestrator) CancelRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	run, err := o.persistence.RunByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run.Status.IsTerminal() {
		return run, fmt.Errorf("run %s is already %s", runID, run.Status)
	}

	run.AddNote("cancellation requested")
	run.Finish(models.RunStatusCanceled, o.now().UTC())

	if err := o.persistence.UpdateRun(ctx, run); err != nil {
		return nil, persistence.NewRunError("UpdateRun", runID, err)
	}

	o.publish(ctx, run, events.RunCanceled{
		BaseEvent:     events.NewBaseEvent(events.RunCanceledEvent, run.ID, run.SupplierID),
		StepsExecuted: len(run.Steps),
		DurationMs:    o.now().UTC().Sub(run.StartedAt).Milliseconds(),
	})

	return run, nil
}

// startRun resolves the supplier and creates the run record. A missing or
// unreachable supplier directory does not abort the run: the registration
// step reports it and the outcome policy takes over.
func (o *Orchestrator) startRun(ctx context.Context, supplierID, workflowType string, options models.RunOptions) (*models.WorkflowRun, *steps.ExecutionState, error) {
	supplier, err := o.directory.SupplierByID(ctx, supplierID)
	if err != nil {
		o.logger.WarnContext(ctx, "Supplier directory lookup failed", "supplier_id", supplierID, "error", err)

		supplier = nil
	}

	run := &models.WorkflowRun{
		SupplierID:   supplierID,
		WorkflowType: workflowType,
		Status:       models.RunStatusRunning,
		Notes:        []string{},
		TriggeredBy:  options.TriggeredBy,
		StartedAt:    o.now().UTC(),
	}

	if err := o.persistence.CreateRun(ctx, run); err != nil {
		return nil, nil, persistence.NewRunError("CreateRun", run.ID, err)
	}

	o.publish(ctx, run, events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, run.ID, run.SupplierID),
		WorkflowType: workflowType,
		TriggeredBy:  options.TriggeredBy,
	})

	state := &steps.ExecutionState{Run: run, Supplier: supplier, Options: options}

	return run, state, nil
}

// executeSequence runs the steps in order. Before each step it checks both
// the context and the persisted run status, so an external cancellation takes
// effect at the next step boundary with all prior results intact.
func (o *Orchestrator) executeSequence(ctx context.Context, run *models.WorkflowRun, state *steps.ExecutionState, sequence []steps.Step) (*models.WorkflowRun, error) {
	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "workflow.run",
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.String(otelhelper.SupplierIDKey, run.SupplierID),
		attribute.String(otelhelper.WorkflowTypeKey, run.WorkflowType),
	)
	defer span.End()

	for index, step := range sequence {
		canceled, err := o.checkCanceled(ctx, run)
		if err != nil {
			return o.failRun(ctx, run, err)
		}

		if canceled {
			return run, ErrRunCanceled
		}

		result, err := o.executeStep(ctx, step, state, index+1)
		if err != nil {
			span.RecordError(err)

			return o.failRun(ctx, run, err)
		}

		// Saved on a detached context: a step interrupted by cancellation
		// still gets its result persisted before the boundary check above
		// finishes the run.
		if err := o.persistence.SaveStepResult(context.WithoutCancel(ctx), result); err != nil {
			wrapped := persistence.NewRunError("SaveStepResult", run.ID, err)
			span.RecordError(wrapped)

			return o.failRun(ctx, run, wrapped)
		}

		run.Steps = append(run.Steps, result)

		o.publish(ctx, run, events.StepCompleted{
			BaseEvent:  events.NewBaseEvent(events.StepCompletedEvent, run.ID, run.SupplierID),
			StepKey:    result.Key,
			Status:     result.Status,
			OrderIndex: result.OrderIndex,
			Issues:     result.Issues,
			DurationMs: stepDuration(result),
		})
	}

	outcome := ComputeOutcome(run.Steps)
	run.Outcome = &outcome
	run.Finish(models.RunStatusCompleted, o.now().UTC())

	if err := o.persistence.UpdateRun(ctx, run); err != nil {
		return nil, persistence.NewRunError("UpdateRun", run.ID, err)
	}

	span.SetAttributes(attribute.String(otelhelper.OutcomeKey, string(outcome)))

	o.publish(ctx, run, events.RunCompleted{
		BaseEvent:     events.NewBaseEvent(events.RunCompletedEvent, run.ID, run.SupplierID),
		Outcome:       outcome,
		StepsExecuted: len(run.Steps),
		DurationMs:    o.now().UTC().Sub(run.StartedAt).Milliseconds(),
	})

	o.logger.InfoContext(ctx, "Qualification run completed",
		"run_id", run.ID, "supplier_id", run.SupplierID, "outcome", outcome)

	return run, nil
}

// checkCanceled reports whether the run should stop before the next step. It
// consults the context first, then the persisted status, so cancellations
// issued through the API are honored even when the local context is healthy.
func (o *Orchestrator) checkCanceled(ctx context.Context, run *models.WorkflowRun) (bool, error) {
	if ctx.Err() != nil {
		run.AddNote("run canceled before completing all steps")
		run.Finish(models.RunStatusCanceled, o.now().UTC())

		// The run context is already dead here; the terminal state write must
		// not be lost to it.
		detached := context.WithoutCancel(ctx)

		if err := o.persistence.UpdateRun(detached, run); err != nil {
			o.logger.Error("Failed to persist canceled run", "run_id", run.ID, "error", err)
		}

		o.publish(detached, run, events.RunCanceled{
			BaseEvent:     events.NewBaseEvent(events.RunCanceledEvent, run.ID, run.SupplierID),
			StepsExecuted: len(run.Steps),
			DurationMs:    o.now().UTC().Sub(run.StartedAt).Milliseconds(),
		})

		return true, nil
	}

	persisted, err := o.persistence.RunByID(ctx, run.ID)
	if err != nil {
		return false, persistence.NewRunError("RunByID", run.ID, err)
	}

	if persisted.Status == models.RunStatusCanceled {
		run.Status = persisted.Status
		run.EndedAt = persisted.EndedAt
		run.Notes = persisted.Notes

		return true, nil
	}

	return false, nil
}

type stepResultOrError struct {
	outcome *steps.Outcome
	err     error
}

// executeStep runs one step under the per-step timeout. Step errors are
// downgraded to a fail result; persistence errors propagate and abort the
// run. A panicking step is contained the same way as an erroring one.
func (o *Orchestrator) executeStep(ctx context.Context, step steps.Step, state *steps.ExecutionState, orderIndex int) (*models.StepResult, error) {
	stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
	defer cancel()

	startedAt := o.now().UTC()

	spanCtx, span := otelhelper.StartSpan(stepCtx, o.tracer, "workflow.step",
		attribute.String(otelhelper.RunIDKey, state.Run.ID),
		attribute.String(otelhelper.StepKeyKey, step.Key()),
	)
	defer span.End()

	resultCh := make(chan stepResultOrError, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- stepResultOrError{err: fmt.Errorf("step panicked: %v", r)}
			}
		}()

		outcome, err := step.Execute(spanCtx, state)
		resultCh <- stepResultOrError{outcome: outcome, err: err}
	}()

	var outcome *steps.Outcome

	select {
	case <-stepCtx.Done():
		if ctx.Err() != nil {
			// Parent canceled, not a step timeout; the boundary check before
			// the next step finishes the run as canceled.
			outcome = &steps.Outcome{
				Status: models.StepStatusFail,
				Issues: []string{"Step execution interrupted by run cancellation"},
			}
		} else {
			outcome = &steps.Outcome{
				Status: models.StepStatusFail,
				Issues: []string{fmt.Sprintf("Step execution timed out after %s", o.stepTimeout)},
			}
		}
	case result := <-resultCh:
		switch {
		case result.err != nil:
			var runErr *persistence.RunError
			if errors.As(result.err, &runErr) {
				otelhelper.SetError(span, result.err)

				return nil, result.err
			}

			o.logger.WarnContext(ctx, "Step execution failed",
				"run_id", state.Run.ID, "step", step.Key(), "error", result.err)
			otelhelper.SetError(span, result.err)

			if errors.Is(result.err, context.DeadlineExceeded) && ctx.Err() == nil {
				// The step observed its own timeout before we did.
				outcome = &steps.Outcome{
					Status: models.StepStatusFail,
					Issues: []string{fmt.Sprintf("Step execution timed out after %s", o.stepTimeout)},
				}

				break
			}

			outcome = &steps.Outcome{
				Status: models.StepStatusFail,
				Issues: []string{fmt.Sprintf("Step execution failed: %s", result.err.Error())},
			}
		default:
			outcome = result.outcome
		}
	}

	endedAt := o.now().UTC()
	span.SetAttributes(attribute.String(otelhelper.StepStatusKey, string(outcome.Status)))

	issues := outcome.Issues
	if issues == nil {
		issues = []string{}
	}

	return &models.StepResult{
		RunID:      state.Run.ID,
		Key:        step.Key(),
		Name:       step.Name(),
		Status:     outcome.Status,
		Issues:     issues,
		Details:    outcome.Details,
		Score:      outcome.Score,
		OrderIndex: orderIndex,
		StartedAt:  startedAt,
		EndedAt:    &endedAt,
	}, nil
}

// failRun marks the run failed after an unrecoverable error. The original
// error is returned alongside the run so callers can distinguish outcome
// policy failures from infrastructure failures.
func (o *Orchestrator) failRun(ctx context.Context, run *models.WorkflowRun, cause error) (*models.WorkflowRun, error) {
	run.AddNote(fmt.Sprintf("run aborted: %s", cause.Error()))
	run.Finish(models.RunStatusFailed, o.now().UTC())

	// The cause may be a dead run context; the terminal state still has to
	// reach storage.
	detached := context.WithoutCancel(ctx)

	if err := o.persistence.UpdateRun(detached, run); err != nil {
		o.logger.Error("Failed to persist failed run", "run_id", run.ID, "error", err)
	}

	o.publish(detached, run, events.RunFailed{
		BaseEvent:     events.NewBaseEvent(events.RunFailedEvent, run.ID, run.SupplierID),
		Error:         cause.Error(),
		StepsExecuted: len(run.Steps),
		DurationMs:    o.now().UTC().Sub(run.StartedAt).Milliseconds(),
	})

	return run, cause
}

// publish sends a lifecycle event, best effort. Event delivery never affects
// the run outcome.
func (o *Orchestrator) publish(ctx context.Context, run *models.WorkflowRun, event eventbus.Event) {
	if o.eventBus == nil {
		return
	}

	if err := o.eventBus.Publish(ctx, run.ID, event); err != nil {
		o.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"run_id", run.ID, "event_type", event.GetType(), "error", err)
	}
}

// ComputeOutcome applies the qualification policy to a completed run's step
// results. Any critical step failure means not_qualified; any other failure
// downgrades to conditionally_qualified; skipped steps never count against
// the supplier.
func ComputeOutcome(results []*models.StepResult) models.Outcome {
	criticalFailed := false
	anyFailed := false

	for _, result := range results {
		if result.Status != models.StepStatusFail {
			continue
		}

		anyFailed = true

		if models.CriticalSteps[result.Key] {
			criticalFailed = true
		}
	}

	switch {
	case criticalFailed:
		return models.OutcomeNotQualified
	case anyFailed:
		return models.OutcomeConditionallyQualified
	default:
		return models.OutcomeQualified
	}
}

func stepDuration(result *models.StepResult) int64 {
	if result.EndedAt == nil {
		return 0
	}

	return result.EndedAt.Sub(result.StartedAt).Milliseconds()
}
