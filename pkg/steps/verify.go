package steps

import (
	"context"
	"fmt"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
)

// VerificationStep runs the document verification engine for one document
// type and persists the full verification result alongside the step outcome.
// It backs the durc, visura and soa steps.
type VerificationStep struct {
	deps    *Dependencies
	key     string
	name    string
	docType models.DocumentType
}

func NewVerificationStep(deps *Dependencies, key, name string, docType models.DocumentType) *VerificationStep {
	return &VerificationStep{deps: deps, key: key, name: name, docType: docType}
}

func (s *VerificationStep) Key() string {
	return s.key
}

func (s *VerificationStep) Name() string {
	return s.name
}

func (s *VerificationStep) Execute(ctx context.Context, state *ExecutionState) (*Outcome, error) {
	extraction, err := s.deps.Documents.Extraction(ctx, state.Run.SupplierID, s.docType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s extraction: %w", s.docType, err)
	}

	if extraction == nil {
		return fail(fmt.Sprintf("no %s document available for verification", s.docType)), nil
	}

	result, err := s.deps.Engine.Verify(ctx, extraction, state.Supplier)
	if err != nil {
		return nil, fmt.Errorf("%s verification failed: %w", s.docType, err)
	}

	result.RunID = state.Run.ID
	result.StepKey = s.key

	if err := s.deps.Persistence.SaveVerification(ctx, result); err != nil {
		// A verification that ran but cannot be recorded must abort the run;
		// the audit trail would otherwise be incomplete.
		return nil, persistence.NewRunError("SaveVerification", state.Run.ID,
			fmt.Errorf("failed to persist %s verification result: %w", s.docType, err))
	}

	return verificationOutcome(result), nil
}

// verificationOutcome maps a verification result onto a step outcome. A
// partial match still passes the step but carries the discrepancies forward
// as issues, so the scorecard and final notes surface them.
func verificationOutcome(result *models.VerificationResult) *Outcome {
	score := float64(result.ConfidenceScore)

	outcome := &Outcome{
		Issues: append([]string{}, result.Discrepancies...),
		Score:  &score,
		Details: map[string]any{
			"document_type":    string(result.DocumentType),
			"overall":          string(result.Overall),
			"confidence_score": result.ConfidenceScore,
			"analysis":         result.Analysis,
		},
	}

	switch result.Overall {
	case models.ResultMatch, models.ResultPartialMatch:
		outcome.Status = models.StepStatusPass
	default:
		outcome.Status = models.StepStatusFail
	}

	return outcome
}
