package verification

import (
	"testing"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/stretchr/testify/assert"
)

func field(name string, status models.FieldStatus, score int, required bool) models.VerificationField {
	return models.VerificationField{
		Field:      name,
		Status:     status,
		MatchScore: score,
		Required:   required,
		Notes:      "note",
	}
}

func TestAggregateEmptyIsNoData(t *testing.T) {
	overall, confidence, discrepancies := Aggregate(nil)

	assert.Equal(t, models.ResultNoData, overall)
	assert.Equal(t, 0, confidence)
	assert.Empty(t, discrepancies)
}

func TestAggregateAllMatched(t *testing.T) {
	overall, confidence, discrepancies := Aggregate([]models.VerificationField{
		field("a", models.FieldMatch, 100, true),
		field("b", models.FieldMatch, 100, false),
	})

	assert.Equal(t, models.ResultMatch, overall)
	assert.Equal(t, 100, confidence)
	assert.Empty(t, discrepancies)
}

func TestAggregatePartialMatch(t *testing.T) {
	overall, confidence, discrepancies := Aggregate([]models.VerificationField{
		field("a", models.FieldMatch, 100, true),
		field("b", models.FieldMismatch, 0, false),
	})

	assert.Equal(t, models.ResultPartialMatch, overall)
	assert.Equal(t, 50, confidence)
	assert.Len(t, discrepancies, 1)
	assert.Contains(t, discrepancies[0], "b: mismatch")
}

func TestAggregateRequiredFailureIsMismatch(t *testing.T) {
	overall, _, _ := Aggregate([]models.VerificationField{
		field("a", models.FieldMatch, 100, true),
		field("b", models.FieldMissing, 0, true),
	})

	assert.Equal(t, models.ResultMismatch, overall)
}

func TestAggregateConfidenceRounding(t *testing.T) {
	_, confidence, _ := Aggregate([]models.VerificationField{
		field("a", models.FieldMatch, 100, true),
		field("b", models.FieldMatch, 100, true),
		field("c", models.FieldMismatch, 50, false),
	})

	// (100+100+50)/3 = 83.33 rounds to 83.
	assert.Equal(t, 83, confidence)
}

func TestAggregateInvalidFieldsProduceNoDiscrepancyLine(t *testing.T) {
	overall, _, discrepancies := Aggregate([]models.VerificationField{
		field("a", models.FieldInvalid, 0, true),
	})

	assert.Equal(t, models.ResultMismatch, overall)
	assert.Empty(t, discrepancies)
}

func TestAggregateDeduplicatesByFieldAndStatus(t *testing.T) {
	_, _, discrepancies := Aggregate([]models.VerificationField{
		field("codice_fiscale", models.FieldMismatch, 0, true),
		field("codice_fiscale", models.FieldMismatch, 0, false),
		field("codice_fiscale", models.FieldMissing, 0, false),
	})

	assert.Len(t, discrepancies, 2)
}
