package models

import "time"

// Supplier is the reference record verification compares against. It is owned
// by the supplier directory collaborator; this subsystem only reads it.
type Supplier struct {
	ID              string `json:"id"               validate:"required"`
	CompanyName     string `json:"company_name"`
	FiscalCode      string `json:"fiscal_code"`
	VATNumber       string `json:"vat_number"`
	Address         string `json:"address"`
	Province        string `json:"province"`
	LegalForm       string `json:"legal_form"`
	WhiteListed     bool   `json:"white_listed"`
	InsuranceExpiry string `json:"insurance_expiry"` // dd/mm/yyyy, as recorded by the directory
}

// DocumentExtraction is the structured output of the external OCR collaborator
// for one document: a flat map of extracted field name to string value.
type DocumentExtraction struct {
	SupplierID  string            `json:"supplier_id"`
	Type        DocumentType      `json:"document_type"`
	Fields      map[string]string `json:"fields"`
	ExtractedAt time.Time         `json:"extracted_at"`
}

// QuestionnaireAnswers holds the preliminary self-assessment answers a
// supplier submitted, keyed by question code.
type QuestionnaireAnswers struct {
	SupplierID string         `json:"supplier_id"`
	Answers    map[string]any `json:"answers"`
}
