package steps

import (
	"context"
	"math"

	"github.com/ecampo/vendiq/pkg/models"
)

// Scorecard aggregates the scores of the steps executed so far into one
// compliance score with a per-step breakdown. It never fails: the scorecard
// reports, the finalize step and the outcome policy judge.
type Scorecard struct {
	deps *Dependencies
}

func NewScorecard(deps *Dependencies) *Scorecard {
	return &Scorecard{deps: deps}
}

func (s *Scorecard) Key() string {
	return models.StepScorecard
}

func (s *Scorecard) Name() string {
	return "Compliance scorecard"
}

func (s *Scorecard) Execute(_ context.Context, state *ExecutionState) (*Outcome, error) {
	breakdown := make(map[string]any, len(state.Run.Steps))
	scoreSum := 0.0
	scored := 0

	for _, step := range state.Run.Steps {
		entry := map[string]any{"status": string(step.Status)}

		if step.Score != nil {
			entry["score"] = *step.Score
			scoreSum += *step.Score
			scored++
		}

		if len(step.Issues) > 0 {
			entry["issues"] = len(step.Issues)
		}

		breakdown[step.Key] = entry
	}

	outcome := pass()
	outcome.Details = map[string]any{
		"breakdown":    breakdown,
		"scored_steps": scored,
	}

	if scored > 0 {
		compliance := math.Round(scoreSum / float64(scored))
		outcome.Score = &compliance
		outcome.Details["compliance_score"] = compliance
	}

	return outcome, nil
}
