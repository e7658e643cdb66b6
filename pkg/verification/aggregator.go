package verification

import (
	"fmt"
	"math"

	"github.com/ecampo/vendiq/pkg/models"
)

// Aggregate combines a list of field comparisons into a confidence score, an
// overall verdict and the formatted discrepancy list.
//
// The confidence score is the arithmetic mean of match scores across all
// entries, document_specific ones included, rounded to the nearest integer.
// Discrepancies are deduplicated on (field, status) so a field checked both
// against the reference record and structurally surfaces one defect once.
func Aggregate(fields []models.VerificationField) (models.OverallResult, int, []string) {
	if len(fields) == 0 {
		return models.ResultNoData, 0, []string{}
	}

	total := 0
	requiredMatched := true
	allMatched := true

	discrepancies := make([]string, 0)
	seen := make(map[string]bool)

	for _, field := range fields {
		total += field.MatchScore

		if field.Status != models.FieldMatch {
			allMatched = false

			if field.Required {
				requiredMatched = false
			}
		}

		if field.Status == models.FieldMismatch || field.Status == models.FieldMissing {
			key := field.Field + "|" + string(field.Status)
			if !seen[key] {
				seen[key] = true

				discrepancies = append(discrepancies, fmt.Sprintf("%s: %s (%s)", field.Field, field.Status, field.Notes))
			}
		}
	}

	confidence := int(math.Round(float64(total) / float64(len(fields))))

	var overall models.OverallResult

	switch {
	case allMatched:
		overall = models.ResultMatch
	case requiredMatched:
		overall = models.ResultPartialMatch
	default:
		overall = models.ResultMismatch
	}

	return overall, confidence, discrepancies
}
