package verification

import (
	"testing"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyForCoversAllSupportedTypes(t *testing.T) {
	for _, docType := range SupportedDocumentTypes() {
		strategy, err := StrategyFor(docType)
		require.NoError(t, err)
		assert.Equal(t, docType, strategy.DocumentType)
		assert.NotEmpty(t, strategy.Rules)

		// Every rule field that maps to a supplier attribute must use a key
		// the reference flattening produces.
		reference := referenceValues(&models.Supplier{})
		for extracted, attribute := range strategy.FieldMappings {
			_, ok := reference[attribute]
			assert.True(t, ok, "%s maps %s to unknown attribute %s", docType, extracted, attribute)
		}
	}
}

func TestStrategyForUnknownType(t *testing.T) {
	_, err := StrategyFor(models.DocumentType("passport"))
	require.ErrorIs(t, err, ErrUnsupportedDocumentType)
}

func TestValidateDURCStructuralChecks(t *testing.T) {
	checks := validateDURC(map[string]string{
		"numero_protocollo": "INAIL_1234567",
		"data_richiesta":    time.Now().UTC().AddDate(0, -1, 0).Format("02/01/2006"),
	})

	require.Len(t, checks, 2)

	for _, check := range checks {
		assert.Equal(t, models.RuleDocumentSpecific, check.RuleType)
		assert.Equal(t, models.FieldMatch, check.Status, check.Field)
		assert.False(t, check.Required)
	}
}

func TestValidateDURCRejectsBadProtocol(t *testing.T) {
	checks := validateDURC(map[string]string{"numero_protocollo": "ABC_123"})

	require.Len(t, checks, 1)
	assert.Equal(t, models.FieldMismatch, checks[0].Status)
	assert.NotEmpty(t, checks[0].Notes)
}

func TestValidateVisuraFiscalCodeFormat(t *testing.T) {
	checks := validateVisura(map[string]string{"codice_fiscale": "not-a-code"})

	require.Len(t, checks, 1)
	assert.Equal(t, "codice_fiscale_format", checks[0].Field)
	assert.Equal(t, models.FieldMismatch, checks[0].Status)

	checks = validateVisura(map[string]string{"codice_fiscale": "01234567890"})
	require.Len(t, checks, 1)
	assert.Equal(t, models.FieldMatch, checks[0].Status)
}

func TestSaneDateBounds(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	ok, _ := saneDate("15/03/2020", now)
	assert.True(t, ok)

	ok, notes := saneDate("15/03/1899", now)
	assert.False(t, ok)
	assert.Contains(t, notes, "1900")

	ok, notes = saneDate("15/03/2030", now)
	assert.False(t, ok)
	assert.Contains(t, notes, "future")

	ok, notes = saneDate("whenever", now)
	assert.False(t, ok)
	assert.Contains(t, notes, "unparseable")
}

func TestValidateExtractionPayloadRejectsEmpty(t *testing.T) {
	err := ValidateExtractionPayload(&models.DocumentExtraction{
		Type:   models.DocumentVisura,
		Fields: map[string]string{},
	})

	require.ErrorIs(t, err, ErrInvalidExtraction)
}

func TestValidateExtractionPayloadAcceptsAnyStringFields(t *testing.T) {
	err := ValidateExtractionPayload(&models.DocumentExtraction{
		Type:   models.DocumentVisura,
		Fields: map[string]string{"unexpected_field": "value"},
	})

	require.NoError(t, err)
}
