package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
)

// Certifications verifies the quality certifications a supplier has on file.
// The ISO certificate is always checked; the chamber-of-commerce (CCIAA)
// registration certificate is checked when an extraction exists for it.
type Certifications struct {
	deps *Dependencies
}

func NewCertifications(deps *Dependencies) *Certifications {
	return &Certifications{deps: deps}
}

func (s *Certifications) Key() string {
	return models.StepCertifications
}

func (s *Certifications) Name() string {
	return "Certifications verification"
}

func (s *Certifications) Execute(ctx context.Context, state *ExecutionState) (*Outcome, error) {
	results := make([]*models.VerificationResult, 0, 2)

	iso, err := s.verifyDocument(ctx, state, models.DocumentISO)
	if err != nil {
		return nil, err
	}

	if iso == nil {
		return fail("no iso certificate available for verification"), nil
	}

	results = append(results, iso)

	cciaa, err := s.verifyDocument(ctx, state, models.DocumentCCIAA)
	if err != nil {
		return nil, err
	}

	if cciaa != nil {
		results = append(results, cciaa)
	}

	return certificationsOutcome(results), nil
}

// verifyDocument runs and persists one certification verification. A missing
// extraction returns nil without error; the caller decides whether that
// document was mandatory.
func (s *Certifications) verifyDocument(ctx context.Context, state *ExecutionState, docType models.DocumentType) (*models.VerificationResult, error) {
	extraction, err := s.deps.Documents.Extraction(ctx, state.Run.SupplierID, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s extraction: %w", docType, err)
	}

	if extraction == nil {
		return nil, nil
	}

	result, err := s.deps.Engine.Verify(ctx, extraction, state.Supplier)
	if err != nil {
		return nil, fmt.Errorf("%s verification failed: %w", docType, err)
	}

	result.RunID = state.Run.ID
	result.StepKey = s.Key()

	if err := s.deps.Persistence.SaveVerification(ctx, result); err != nil {
		return nil, persistence.NewRunError("SaveVerification", state.Run.ID,
			fmt.Errorf("failed to persist %s verification result: %w", docType, err))
	}

	return result, nil
}

// certificationsOutcome merges the per-document results: issues accumulate,
// the step score is the mean confidence, and any outright mismatch fails the
// step.
func certificationsOutcome(results []*models.VerificationResult) *Outcome {
	issues := make([]string, 0)
	verified := make([]string, 0, len(results))
	confidenceSum := 0
	failed := false

	for _, result := range results {
		verified = append(verified, string(result.DocumentType))
		confidenceSum += result.ConfidenceScore
		issues = append(issues, result.Discrepancies...)

		if result.Overall == models.ResultMismatch || result.Overall == models.ResultNoData {
			failed = true
		}
	}

	score := math.Round(float64(confidenceSum) / float64(len(results)))

	outcome := &Outcome{
		Status: models.StepStatusPass,
		Issues: issues,
		Score:  &score,
		Details: map[string]any{
			"documents_verified": verified,
		},
	}

	if failed {
		outcome.Status = models.StepStatusFail
	}

	return outcome
}
