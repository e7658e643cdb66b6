// Package testutil provides test data builders and collaborator stubs.
package testutil

import (
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/google/uuid"
)

// CreateTestSupplier creates a supplier record with consistent defaults that
// can be overridden per test.
func CreateTestSupplier(overrides ...func(*models.Supplier)) *models.Supplier {
	supplier := &models.Supplier{
		ID:              uuid.New().String(),
		CompanyName:     "Rossi Costruzioni S.R.L.",
		FiscalCode:      "01234567890",
		VATNumber:       "01234567890",
		Address:         "Via Roma 1, Milano",
		Province:        "MI",
		LegalForm:       "S.R.L.",
		WhiteListed:     true,
		InsuranceExpiry: time.Now().UTC().AddDate(1, 0, 0).Format("02/01/2006"),
	}

	for _, override := range overrides {
		override(supplier)
	}

	return supplier
}

// CreateTestExtraction creates a document extraction whose fields agree with
// the CreateTestSupplier defaults for the given document type.
func CreateTestExtraction(supplierID string, docType models.DocumentType, overrides ...func(*models.DocumentExtraction)) *models.DocumentExtraction {
	future := time.Now().UTC().AddDate(0, 6, 0).Format("02/01/2006")

	fields := map[string]string{}

	switch docType {
	case models.DocumentDURC:
		fields = map[string]string{
			"denominazione":     "Rossi Costruzioni S.R.L.",
			"codice_fiscale":    "01234567890",
			"esito":             "RISULTA REGOLARE",
			"scadenza_validita": future,
			"numero_protocollo": "INPS_12345678",
		}
	case models.DocumentVisura:
		fields = map[string]string{
			"denominazione":  "Rossi Costruzioni S.R.L.",
			"codice_fiscale": "01234567890",
			"partita_iva":    "01234567890",
			"sede_legale":    "Via Roma 1, Milano",
			"stato_attivita": "ATTIVA",
			"numero_rea":     "MI-1234567",
		}
	case models.DocumentSOA:
		fields = map[string]string{
			"ragione_sociale":     "Rossi Costruzioni S.R.L.",
			"codice_fiscale":      "01234567890",
			"data_scadenza":       future,
			"numero_attestazione": "12345/10/00",
			"categorie":           "OG1 classifica III",
		}
	case models.DocumentISO:
		fields = map[string]string{
			"ragione_sociale":    "Rossi Costruzioni S.R.L.",
			"norma":              "ISO 9001",
			"data_scadenza":      future,
			"numero_certificato": "IT-9001-12345",
		}
	case models.DocumentCCIAA:
		fields = map[string]string{
			"denominazione":     "Rossi Costruzioni S.R.L.",
			"codice_fiscale":    "01234567890",
			"stato":             "ISCRITTA",
			"numero_iscrizione": "MI123456",
		}
	}

	extraction := &models.DocumentExtraction{
		SupplierID:  supplierID,
		Type:        docType,
		Fields:      fields,
		ExtractedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(extraction)
	}

	return extraction
}

// CreateTestAnswers creates questionnaire answers that satisfy the
// preliminary step schema.
func CreateTestAnswers(supplierID string, overrides ...func(*models.QuestionnaireAnswers)) *models.QuestionnaireAnswers {
	answers := &models.QuestionnaireAnswers{
		SupplierID: supplierID,
		Answers: map[string]any{
			"legal_compliance":       true,
			"anti_mafia_declaration": true,
			"employee_count":         12,
		},
	}

	for _, override := range overrides {
		override(answers)
	}

	return answers
}
