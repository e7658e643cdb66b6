package verification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidExtraction indicates the OCR payload does not satisfy the
// structural schema for its document type.
var ErrInvalidExtraction = errors.New("invalid extraction payload")

// extractionSchemas declares, per document type, the minimum shape an OCR
// payload must have before comparison rules are worth running. Absent fields
// are a per-field concern (they score as missing); the schema only rejects
// payloads that are empty or carry non-string values.
var extractionSchemas = map[models.DocumentType]string{
	models.DocumentDURC: `{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {"type": "string"}
	}`,
	models.DocumentVisura: `{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {"type": "string"}
	}`,
	models.DocumentSOA: `{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {"type": "string"}
	}`,
	models.DocumentISO: `{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {"type": "string"}
	}`,
	models.DocumentCCIAA: `{
		"type": "object",
		"minProperties": 1,
		"additionalProperties": {"type": "string"}
	}`,
}

// ValidateExtractionPayload checks the extracted field map against the schema
// registered for its document type.
func ValidateExtractionPayload(extraction *models.DocumentExtraction) error {
	schema, ok := extractionSchemas[extraction.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedDocumentType, extraction.Type)
	}

	document := make(map[string]any, len(extraction.Fields))
	for key, value := range extraction.Fields {
		document[key] = value
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("failed to validate extraction payload: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, violation.String())
	}

	return fmt.Errorf("%w for %s: %s", ErrInvalidExtraction, extraction.Type, strings.Join(violations, "; "))
}
