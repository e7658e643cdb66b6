package testutil

import (
	"context"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/protocol"
)

// StubDirectory serves supplier records from a map. A nil map or a missing
// key behaves as an empty directory.
type StubDirectory struct {
	Suppliers map[string]*models.Supplier
	Err       error
}

func (s *StubDirectory) SupplierByID(_ context.Context, supplierID string) (*models.Supplier, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	return s.Suppliers[supplierID], nil
}

// StubDocuments serves extractions keyed by document type.
type StubDocuments struct {
	Extractions map[models.DocumentType]*models.DocumentExtraction
	Err         error
}

func (s *StubDocuments) Extraction(_ context.Context, _ string, docType models.DocumentType) (*models.DocumentExtraction, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	return s.Extractions[docType], nil
}

// StubQuestionnaires serves one answer set for every supplier.
type StubQuestionnaires struct {
	Answers *models.QuestionnaireAnswers
	Err     error
}

func (s *StubQuestionnaires) AnswersBySupplier(_ context.Context, _ string) (*models.QuestionnaireAnswers, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	return s.Answers, nil
}

// StubReasoner returns a canned verdict, or an error to exercise the
// deterministic fallback path.
type StubReasoner struct {
	Match  bool
	Reason string
	Err    error

	// Calls records the value pairs the engine asked about.
	Calls [][2]string
}

func (s *StubReasoner) Compare(_ context.Context, extracted, reference, _ string) (protocol.ReasonedMatch, error) {
	s.Calls = append(s.Calls, [2]string{extracted, reference})

	if s.Err != nil {
		return protocol.ReasonedMatch{}, s.Err
	}

	return protocol.ReasonedMatch{Match: s.Match, Reason: s.Reason}, nil
}
