// Package verification implements document verification: per-document-type
// comparison strategies, the field comparison engine and result aggregation.
package verification

import (
	"errors"
	"fmt"

	"github.com/ecampo/vendiq/pkg/models"
)

// ErrUnsupportedDocumentType is returned when no strategy is registered for
// the requested document type.
var ErrUnsupportedDocumentType = errors.New("unsupported document type")

// Rule is one ordered comparison to run against an extracted field.
type Rule struct {
	Field        string          `json:"field"`
	Type         models.RuleType `json:"rule_type"`
	Threshold    int             `json:"threshold"`
	Required     bool            `json:"required"`
	Expected     []string        `json:"expected,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}

// Strategy describes how one document type is verified: which extracted field
// maps to which supplier attribute, the ordered comparison rules, and the
// structural validations that run independently of the reference record.
// Strategies hold no mutable state.
type Strategy struct {
	DocumentType  models.DocumentType
	FieldMappings map[string]string
	Rules         []Rule
	Validate      func(fields map[string]string) []models.VerificationField
}

// StrategyFor returns the strategy registered for the document type. Selection
// is a plain table lookup over a closed set.
func StrategyFor(docType models.DocumentType) (Strategy, error) {
	strategy, ok := strategies[docType]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %s", ErrUnsupportedDocumentType, docType)
	}

	return strategy, nil
}

// SupportedDocumentTypes lists the registered document types.
func SupportedDocumentTypes() []models.DocumentType {
	return []models.DocumentType{
		models.DocumentDURC,
		models.DocumentVisura,
		models.DocumentSOA,
		models.DocumentISO,
		models.DocumentCCIAA,
	}
}

// referenceValues flattens the supplier record into the attribute keys used by
// strategy field mappings.
func referenceValues(supplier *models.Supplier) map[string]string {
	if supplier == nil {
		return map[string]string{}
	}

	return map[string]string{
		"company_name": supplier.CompanyName,
		"fiscal_code":  supplier.FiscalCode,
		"vat_number":   supplier.VATNumber,
		"address":      supplier.Address,
		"province":     supplier.Province,
		"legal_form":   supplier.LegalForm,
	}
}
