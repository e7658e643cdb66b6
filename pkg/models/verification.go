package models

import "time"

// DocumentType identifies one of the five supplier document categories the
// verification engine knows how to check. The set is closed.
type DocumentType string

const (
	DocumentDURC   DocumentType = "durc"   // tax-compliance certificate
	DocumentVisura DocumentType = "visura" // business-registry extract
	DocumentSOA    DocumentType = "soa"    // construction-qualification attestation
	DocumentISO    DocumentType = "iso"    // quality-management certification
	DocumentCCIAA  DocumentType = "cciaa"  // chamber-of-commerce registration
)

// RuleType selects how an extracted value is compared against its reference.
type RuleType string

const (
	RuleExactMatch       RuleType = "exact_match"
	RuleFuzzyMatch       RuleType = "fuzzy_match"
	RuleDateValidation   RuleType = "date_validation"
	RuleStatusCheck      RuleType = "status_check"
	RuleDocumentSpecific RuleType = "document_specific"
)

// FieldStatus is the verdict of one field comparison.
type FieldStatus string

const (
	FieldMatch    FieldStatus = "match"
	FieldMismatch FieldStatus = "mismatch"
	FieldMissing  FieldStatus = "missing"
	FieldInvalid  FieldStatus = "invalid"
)

// VerificationField is one compared attribute: the OCR-extracted value, the
// supplier-record reference value, the rule applied and its result.
type VerificationField struct {
	Field      string      `json:"field"`
	Extracted  *string     `json:"extracted"`
	Reference  *string     `json:"reference"`
	RuleType   RuleType    `json:"rule_type"`
	Threshold  int         `json:"threshold" validate:"gte=0,lte=100"`
	Required   bool        `json:"is_required"`
	Expected   []string    `json:"expected,omitempty"`
	MatchScore int         `json:"match_score" validate:"gte=0,lte=100"`
	Status     FieldStatus `json:"status"`
	Notes      string      `json:"notes,omitempty"`
}

// OverallResult is the aggregate verdict of one verification invocation.
type OverallResult string

const (
	ResultMatch        OverallResult = "match"
	ResultMismatch     OverallResult = "mismatch"
	ResultPartialMatch OverallResult = "partial_match"
	ResultNoData       OverallResult = "no_data"
)

// VerificationResult is produced once per verification-step invocation and is
// immutable after creation; a re-run creates a new result.
type VerificationResult struct {
	ID              string              `json:"id"`
	RunID           string              `json:"run_id"`
	StepKey         string              `json:"step_key"`
	DocumentType    DocumentType        `json:"document_type"`
	Overall         OverallResult       `json:"overall_result"`
	ConfidenceScore int                 `json:"confidence_score" validate:"gte=0,lte=100"`
	Fields          []VerificationField `json:"fields"`
	Discrepancies   []string            `json:"discrepancies"`
	Analysis        string              `json:"analysis"`
	CreatedAt       time.Time           `json:"created_at"`
}
