// Package steps implements the nine qualification step executors. Steps are
// pure against their injected dependencies: all side effects go through the
// persistence layer and the collaborator interfaces.
package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/ecampo/vendiq/pkg/protocol"
	"github.com/ecampo/vendiq/pkg/verification"
)

// Dependencies carries everything a step executor may need. The orchestrator
// owns the lifecycle of every collaborator.
type Dependencies struct {
	Persistence    persistence.Persistence
	Directory      protocol.SupplierDirectory
	Documents      protocol.DocumentSource
	Questionnaires protocol.QuestionnaireSource
	Engine         *verification.Engine
	Logger         *slog.Logger

	// Now overrides the clock for time-sensitive checks. Nil means time.Now.
	Now func() time.Time
}

func (d *Dependencies) nowOrDefault() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now().UTC()
}

// ExecutionState is the per-run state shared by all steps of one run. The
// Run's Steps slice holds the results of steps already completed, so later
// steps (scorecard, finalize) can read them.
type ExecutionState struct {
	Run      *models.WorkflowRun
	Supplier *models.Supplier
	Options  models.RunOptions
}

// Outcome is what a step executor reports back to the orchestrator. Errors
// returned from Execute are downgraded to a fail status at the orchestrator
// boundary; only persistence errors abort the run.
type Outcome struct {
	Status  models.StepStatus
	Issues  []string
	Details map[string]any
	Score   *float64
}

// Step is one executor in the qualification sequence.
type Step interface {
	Key() string
	Name() string
	Execute(ctx context.Context, state *ExecutionState) (*Outcome, error)
}

// Sequence returns the configured step order for a full run. The soa step is
// present only when options request it; the positions of the following steps
// shift accordingly.
func Sequence(deps *Dependencies, options models.RunOptions) []Step {
	sequence := []Step{
		NewRegistration(deps),
		NewPreliminary(deps),
		NewVerificationStep(deps, models.StepDURC, "DURC verification", models.DocumentDURC),
		NewWhiteListInsurance(deps),
		NewVerificationStep(deps, models.StepVisura, "VISURA verification", models.DocumentVisura),
		NewCertifications(deps),
	}

	if options.IncludeSOA {
		sequence = append(sequence, NewVerificationStep(deps, models.StepSOA, "SOA attestation verification", models.DocumentSOA))
	}

	return append(sequence, NewScorecard(deps), NewFinalize(deps))
}

// ErrUnknownStep is returned by ByKey for a key outside the configured
// sequence.
var ErrUnknownStep = errors.New("unknown step key")

// ByKey returns a single step executor for targeted re-verification.
func ByKey(deps *Dependencies, key string) (Step, error) {
	for _, step := range Sequence(deps, models.RunOptions{IncludeSOA: true, IncludeWhiteList: true}) {
		if step.Key() == key {
			return step, nil
		}
	}

	return nil, fmt.Errorf("%w %q", ErrUnknownStep, key)
}

func pass() *Outcome {
	return &Outcome{Status: models.StepStatusPass, Issues: []string{}}
}

func fail(issues ...string) *Outcome {
	return &Outcome{Status: models.StepStatusFail, Issues: issues}
}

func skip(reason string) *Outcome {
	return &Outcome{
		Status:  models.StepStatusSkip,
		Issues:  []string{},
		Details: map[string]any{"reason": reason},
	}
}
