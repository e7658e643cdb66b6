// Package protocol defines the contracts between the qualification engine and
// its external collaborators. Implementations are owned by the caller and
// injected at construction time.
package protocol

import (
	"context"

	"github.com/ecampo/vendiq/pkg/models"
)

// SupplierDirectory resolves the supplier reference record used as the
// comparison baseline. A nil supplier with a nil error means the directory has
// no record for the identifier.
type SupplierDirectory interface {
	SupplierByID(ctx context.Context, supplierID string) (*models.Supplier, error)
}

// DocumentSource supplies the structured extraction produced by the OCR
// pipeline for one document type. A nil extraction with a nil error means no
// document of that type has been submitted.
type DocumentSource interface {
	Extraction(ctx context.Context, supplierID string, docType models.DocumentType) (*models.DocumentExtraction, error)
}

// QuestionnaireSource supplies the preliminary questionnaire answers a
// supplier submitted.
type QuestionnaireSource interface {
	AnswersBySupplier(ctx context.Context, supplierID string) (*models.QuestionnaireAnswers, error)
}
