package steps

import (
	"context"
	"fmt"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// questionnaireSchema is the structural contract for the preliminary
// self-assessment: the answer set a supplier must have completed before
// document verification is worth running.
const questionnaireSchema = `{
	"type": "object",
	"required": ["legal_compliance", "anti_mafia_declaration", "employee_count"],
	"properties": {
		"legal_compliance": {"type": "boolean", "const": true},
		"anti_mafia_declaration": {"type": "boolean", "const": true},
		"employee_count": {"type": "integer", "minimum": 1}
	}
}`

// Preliminary validates the supplier's questionnaire answers against the
// qualification questionnaire schema.
type Preliminary struct {
	deps *Dependencies
}

func NewPreliminary(deps *Dependencies) *Preliminary {
	return &Preliminary{deps: deps}
}

func (s *Preliminary) Key() string {
	return models.StepPreliminary
}

func (s *Preliminary) Name() string {
	return "Preliminary questionnaire check"
}

func (s *Preliminary) Execute(ctx context.Context, state *ExecutionState) (*Outcome, error) {
	answers, err := s.deps.Questionnaires.AnswersBySupplier(ctx, state.Run.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questionnaire answers: %w", err)
	}

	if answers == nil {
		return fail("no questionnaire answers submitted"), nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(questionnaireSchema),
		gojsonschema.NewGoLoader(answers.Answers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate questionnaire answers: %w", err)
	}

	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			issues = append(issues, "questionnaire: "+violation.String())
		}

		return fail(issues...), nil
	}

	outcome := pass()
	outcome.Details = map[string]any{"answers_validated": len(answers.Answers)}

	return outcome, nil
}
