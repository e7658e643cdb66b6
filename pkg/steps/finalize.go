package steps

import (
	"context"
	"fmt"

	"github.com/ecampo/vendiq/pkg/models"
)

// Finalize closes the run: it counts the per-status results, writes the
// summary note and leaves the outcome decision to the orchestrator's policy.
type Finalize struct {
	deps *Dependencies
}

func NewFinalize(deps *Dependencies) *Finalize {
	return &Finalize{deps: deps}
}

func (s *Finalize) Key() string {
	return models.StepFinalize
}

func (s *Finalize) Name() string {
	return "Finalize qualification"
}

func (s *Finalize) Execute(_ context.Context, state *ExecutionState) (*Outcome, error) {
	passed, failed, skipped := 0, 0, 0
	failedCritical := make([]string, 0)

	for _, step := range state.Run.Steps {
		switch step.Status {
		case models.StepStatusPass:
			passed++
		case models.StepStatusFail:
			failed++

			if models.CriticalSteps[step.Key] {
				failedCritical = append(failedCritical, step.Key)
			}
		case models.StepStatusSkip:
			skipped++
		}
	}

	state.Run.AddNote(fmt.Sprintf("qualification summary: %d passed, %d failed, %d skipped", passed, failed, skipped))

	for _, key := range failedCritical {
		state.Run.AddNote(fmt.Sprintf("critical step %s failed", key))
	}

	outcome := pass()
	outcome.Details = map[string]any{
		"passed":          passed,
		"failed":          failed,
		"skipped":         skipped,
		"failed_critical": failedCritical,
	}

	return outcome, nil
}
