package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func futureDate() string {
	return time.Now().UTC().AddDate(0, 6, 0).Format("02/01/2006")
}

func pastDate() string {
	return time.Now().UTC().AddDate(0, -6, 0).Format("02/01/2006")
}

func TestVerifyDURCFullMatch(t *testing.T) {
	reasoner := &testutil.StubReasoner{Match: true, Reason: "same company, abbreviation differs"}
	engine := NewEngine(reasoner, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC)

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	assert.Equal(t, models.ResultMatch, result.Overall)
	assert.Equal(t, 100, result.ConfidenceScore)
	assert.Empty(t, result.Discrepancies)
	assert.Len(t, result.Fields, 5)

	for _, field := range result.Fields {
		assert.Equal(t, models.FieldMatch, field.Status, "field %s", field.Field)
	}
}

func TestVerifyRegularityStatusNormalization(t *testing.T) {
	engine := NewEngine(&testutil.StubReasoner{Match: true}, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		e.Fields["esito"] = "  risulta  regolare. "
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	assert.Equal(t, models.ResultMatch, result.Overall)
}

func TestVerifyReasonerFallbackOnError(t *testing.T) {
	reasoner := &testutil.StubReasoner{Err: errors.New("service unavailable")}
	engine := NewEngine(reasoner, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		// Normalizes to the same string as the reference record.
		e.Fields["denominazione"] = "ROSSI COSTRUZIONI SRL"
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	var name *models.VerificationField

	for i := range result.Fields {
		if result.Fields[i].Field == "denominazione" {
			name = &result.Fields[i]
		}
	}

	require.NotNil(t, name)
	assert.Equal(t, models.FieldMatch, name.Status)
	assert.Equal(t, 100, name.MatchScore)
	assert.Contains(t, name.Notes, "fallback")
}

func TestVerifyNilReasonerUsesFallback(t *testing.T) {
	engine := NewEngine(nil, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		e.Fields["denominazione"] = "Bianchi Scavi S.P.A."
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	var name *models.VerificationField

	for i := range result.Fields {
		if result.Fields[i].Field == "denominazione" {
			name = &result.Fields[i]
		}
	}

	require.NotNil(t, name)
	assert.Equal(t, models.FieldMismatch, name.Status)
	assert.Equal(t, 0, name.MatchScore)
}

func TestVerifyExpiredDocument(t *testing.T) {
	engine := NewEngine(&testutil.StubReasoner{Match: true}, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		e.Fields["scadenza_validita"] = pastDate()
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	assert.Equal(t, models.ResultMismatch, result.Overall)

	var expiry *models.VerificationField

	for i := range result.Fields {
		if result.Fields[i].Field == "scadenza_validita" {
			expiry = &result.Fields[i]
		}
	}

	require.NotNil(t, expiry)
	assert.Equal(t, models.FieldMismatch, expiry.Status)
	assert.Equal(t, 50, expiry.MatchScore)
	assert.Contains(t, expiry.Notes, "expired")
}

func TestVerifyMalformedDateIsInvalid(t *testing.T) {
	engine := NewEngine(&testutil.StubReasoner{Match: true}, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		e.Fields["scadenza_validita"] = "31/02/banana"
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	var expiry *models.VerificationField

	for i := range result.Fields {
		if result.Fields[i].Field == "scadenza_validita" {
			expiry = &result.Fields[i]
		}
	}

	require.NotNil(t, expiry)
	assert.Equal(t, models.FieldInvalid, expiry.Status)
	assert.Equal(t, 0, expiry.MatchScore)
}

func TestVerifyMissingRequiredField(t *testing.T) {
	engine := NewEngine(&testutil.StubReasoner{Match: true}, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		delete(e.Fields, "codice_fiscale")
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	assert.Equal(t, models.ResultMismatch, result.Overall)

	var code *models.VerificationField

	for i := range result.Fields {
		if result.Fields[i].Field == "codice_fiscale" {
			code = &result.Fields[i]
		}
	}

	require.NotNil(t, code)
	assert.Equal(t, models.FieldMissing, code.Status)
	assert.Nil(t, code.Extracted)
}

func TestVerifyUnsupportedDocumentType(t *testing.T) {
	engine := NewEngine(nil, testLogger())

	extraction := &models.DocumentExtraction{
		Type:   models.DocumentType("passport"),
		Fields: map[string]string{"name": "x"},
	}

	_, err := engine.Verify(context.Background(), extraction, testutil.CreateTestSupplier())
	require.ErrorIs(t, err, ErrUnsupportedDocumentType)
}

func TestVerifyEmptyPayloadRejected(t *testing.T) {
	engine := NewEngine(nil, testLogger())

	extraction := &models.DocumentExtraction{
		Type:   models.DocumentDURC,
		Fields: map[string]string{},
	}

	_, err := engine.Verify(context.Background(), extraction, testutil.CreateTestSupplier())
	require.ErrorIs(t, err, ErrInvalidExtraction)
}

func TestVerifyStructuralProtocolCheck(t *testing.T) {
	engine := NewEngine(&testutil.StubReasoner{Match: true}, testLogger())

	supplier := testutil.CreateTestSupplier()
	extraction := testutil.CreateTestExtraction(supplier.ID, models.DocumentDURC, func(e *models.DocumentExtraction) {
		e.Fields["numero_protocollo"] = "PROT-99"
	})

	result, err := engine.Verify(context.Background(), extraction, supplier)
	require.NoError(t, err)

	// A structural defect is not a required-field failure: the overall verdict
	// degrades to partial_match, not mismatch.
	assert.Equal(t, models.ResultPartialMatch, result.Overall)
	assert.Len(t, result.Discrepancies, 1)
	assert.Contains(t, result.Discrepancies[0], "numero_protocollo")
}

func TestParseDateLayouts(t *testing.T) {
	for _, value := range []string{"15/03/2027", "15-03-2027", "2027-03-15"} {
		parsed, err := ParseDate(value)
		require.NoError(t, err, value)
		assert.Equal(t, 2027, parsed.Year())
		assert.Equal(t, time.March, parsed.Month())
		assert.Equal(t, 15, parsed.Day())
	}

	_, err := ParseDate("March 15, 2027")
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ROSSI COSTRUZIONI SRL", normalize("  Rossi   Costruzioni S.r.l. "))
	assert.Equal(t, "ATTIVA", normalize("attiva"))
	assert.Equal(t, "", normalize("  ...  "))
}
