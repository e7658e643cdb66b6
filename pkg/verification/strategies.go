package verification

import (
	"fmt"
	"regexp"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
)

// Comparison instructions handed to the reasoning service for fuzzy rules.
const (
	companyNameInstructions = "Compare company names tolerating legal-form abbreviations (S.R.L. vs SRL vs Società a Responsabilità Limitata) and punctuation differences. Different companies must not match."
	addressInstructions     = "Compare addresses treating common abbreviation aliases (Via/V., Piazza/P.zza, Corso/C.so) and province code versus full province name as equivalent."
	identifierInstructions  = "Compare identifier codes character by character; any difference is a mismatch."
)

var (
	durcProtocolPattern  = regexp.MustCompile(`^(INPS|INAIL)_\d{7,9}$`)
	reaNumberPattern     = regexp.MustCompile(`^[A-Z]{2}-\d{6,7}$`)
	fiscalCodePattern    = regexp.MustCompile(`^([A-Z0-9]{16}|\d{11})$`)
	soaAttestationNumber = regexp.MustCompile(`^\d{5,8}/\d{1,2}/\d{2}$`)
	soaCategoryPattern   = regexp.MustCompile(`^OG\d{1,2}|^OS\d{1,2}`)
	isoCertNumberPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-/\.]{3,}$`)
	cciaaNumberPattern   = regexp.MustCompile(`^[A-Z]{0,2}\d{5,7}$`)
)

// strategies is the closed lookup table of per-document-type verification
// strategies. Keys of FieldMappings are extracted (OCR) field names; values
// are supplier-record attribute keys.
var strategies = map[models.DocumentType]Strategy{
	models.DocumentDURC: {
		DocumentType: models.DocumentDURC,
		FieldMappings: map[string]string{
			"denominazione":  "company_name",
			"codice_fiscale": "fiscal_code",
		},
		Rules: []Rule{
			{Field: "denominazione", Type: models.RuleFuzzyMatch, Threshold: 85, Required: true, Instructions: companyNameInstructions},
			{Field: "codice_fiscale", Type: models.RuleExactMatch, Threshold: 100, Required: true},
			{Field: "esito", Type: models.RuleStatusCheck, Threshold: 100, Required: true, Expected: []string{"RISULTA REGOLARE"}},
			{Field: "scadenza_validita", Type: models.RuleDateValidation, Threshold: 100, Required: true},
		},
		Validate: validateDURC,
	},
	models.DocumentVisura: {
		DocumentType: models.DocumentVisura,
		FieldMappings: map[string]string{
			"denominazione":  "company_name",
			"codice_fiscale": "fiscal_code",
			"partita_iva":    "vat_number",
			"sede_legale":    "address",
		},
		Rules: []Rule{
			{Field: "denominazione", Type: models.RuleFuzzyMatch, Threshold: 85, Required: true, Instructions: companyNameInstructions},
			{Field: "codice_fiscale", Type: models.RuleExactMatch, Threshold: 100, Required: true},
			{Field: "partita_iva", Type: models.RuleExactMatch, Threshold: 100, Required: true},
			{Field: "sede_legale", Type: models.RuleFuzzyMatch, Threshold: 80, Required: false, Instructions: addressInstructions},
			{Field: "stato_attivita", Type: models.RuleStatusCheck, Threshold: 100, Required: true, Expected: []string{"ATTIVA", "ATTIVO"}},
		},
		Validate: validateVisura,
	},
	models.DocumentSOA: {
		DocumentType: models.DocumentSOA,
		FieldMappings: map[string]string{
			"ragione_sociale": "company_name",
			"codice_fiscale":  "fiscal_code",
		},
		Rules: []Rule{
			{Field: "ragione_sociale", Type: models.RuleFuzzyMatch, Threshold: 85, Required: true, Instructions: companyNameInstructions},
			{Field: "codice_fiscale", Type: models.RuleFuzzyMatch, Threshold: 100, Required: true, Instructions: identifierInstructions},
			{Field: "data_scadenza", Type: models.RuleDateValidation, Threshold: 100, Required: true},
		},
		Validate: validateSOA,
	},
	models.DocumentISO: {
		DocumentType: models.DocumentISO,
		FieldMappings: map[string]string{
			"ragione_sociale": "company_name",
		},
		Rules: []Rule{
			{Field: "ragione_sociale", Type: models.RuleFuzzyMatch, Threshold: 85, Required: true, Instructions: companyNameInstructions},
			{Field: "norma", Type: models.RuleStatusCheck, Threshold: 100, Required: true, Expected: []string{"ISO 9001", "ISO 14001", "ISO 45001"}},
			{Field: "data_scadenza", Type: models.RuleDateValidation, Threshold: 100, Required: true},
		},
		Validate: validateISO,
	},
	models.DocumentCCIAA: {
		DocumentType: models.DocumentCCIAA,
		FieldMappings: map[string]string{
			"denominazione":  "company_name",
			"codice_fiscale": "fiscal_code",
		},
		Rules: []Rule{
			{Field: "denominazione", Type: models.RuleFuzzyMatch, Threshold: 85, Required: true, Instructions: companyNameInstructions},
			{Field: "codice_fiscale", Type: models.RuleExactMatch, Threshold: 100, Required: true},
			{Field: "stato", Type: models.RuleStatusCheck, Threshold: 100, Required: false, Expected: []string{"ATTIVA", "ISCRITTA"}},
		},
		Validate: validateCCIAA,
	},
}

// structuralCheck builds a document_specific comparison entry. These surface
// as discrepancies but never gate required-field qualification.
func structuralCheck(field string, extracted string, passed bool, notes string) models.VerificationField {
	value := extracted

	result := models.VerificationField{
		Field:     field,
		Extracted: &value,
		RuleType:  models.RuleDocumentSpecific,
		Threshold: 100,
		Required:  false,
		Notes:     notes,
	}

	if passed {
		result.MatchScore = 100
		result.Status = models.FieldMatch
	} else {
		result.MatchScore = 0
		result.Status = models.FieldMismatch
	}

	return result
}

// saneDate checks a day/month/year literal against sanity bounds: parseable,
// not before 1900 and not in the future.
func saneDate(value string, now time.Time) (bool, string) {
	parsed, err := ParseDate(value)
	if err != nil {
		return false, fmt.Sprintf("unparseable date %q", value)
	}

	if parsed.Year() < 1900 {
		return false, fmt.Sprintf("date %q precedes 1900", value)
	}

	if parsed.After(now) {
		return false, fmt.Sprintf("date %q is in the future", value)
	}

	return true, ""
}

func validateDURC(fields map[string]string) []models.VerificationField {
	checks := make([]models.VerificationField, 0, 2)

	if protocol, ok := fields["numero_protocollo"]; ok {
		passed := durcProtocolPattern.MatchString(protocol)
		notes := ""

		if !passed {
			notes = "protocol number does not match INPS/INAIL format"
		}

		checks = append(checks, structuralCheck("numero_protocollo", protocol, passed, notes))
	}

	if emitted, ok := fields["data_richiesta"]; ok {
		passed, notes := saneDate(emitted, time.Now().UTC())
		checks = append(checks, structuralCheck("data_richiesta", emitted, passed, notes))
	}

	return checks
}

func validateVisura(fields map[string]string) []models.VerificationField {
	checks := make([]models.VerificationField, 0, 2)

	if rea, ok := fields["numero_rea"]; ok {
		passed := reaNumberPattern.MatchString(rea)
		notes := ""

		if !passed {
			notes = "REA number does not match province-prefix format"
		}

		checks = append(checks, structuralCheck("numero_rea", rea, passed, notes))
	}

	if code, ok := fields["codice_fiscale"]; ok {
		passed := fiscalCodePattern.MatchString(code)
		notes := ""

		if !passed {
			notes = "fiscal code is neither a 16-character code nor an 11-digit number"
		}

		checks = append(checks, structuralCheck("codice_fiscale_format", code, passed, notes))
	}

	return checks
}

func validateSOA(fields map[string]string) []models.VerificationField {
	checks := make([]models.VerificationField, 0, 2)

	if number, ok := fields["numero_attestazione"]; ok {
		passed := soaAttestationNumber.MatchString(number)
		notes := ""

		if !passed {
			notes = "attestation number does not match SOA numbering"
		}

		checks = append(checks, structuralCheck("numero_attestazione", number, passed, notes))
	}

	if categories, ok := fields["categorie"]; ok {
		passed := soaCategoryPattern.MatchString(categories)
		notes := ""

		if !passed {
			notes = "categories do not start with an OG/OS classification"
		}

		checks = append(checks, structuralCheck("categorie", categories, passed, notes))
	}

	return checks
}

func validateISO(fields map[string]string) []models.VerificationField {
	checks := make([]models.VerificationField, 0, 1)

	if number, ok := fields["numero_certificato"]; ok {
		passed := isoCertNumberPattern.MatchString(number)
		notes := ""

		if !passed {
			notes = "certificate number format is not recognized"
		}

		checks = append(checks, structuralCheck("numero_certificato", number, passed, notes))
	}

	return checks
}

func validateCCIAA(fields map[string]string) []models.VerificationField {
	checks := make([]models.VerificationField, 0, 2)

	if number, ok := fields["numero_iscrizione"]; ok {
		passed := cciaaNumberPattern.MatchString(number)
		notes := ""

		if !passed {
			notes = "registration number format is not recognized"
		}

		checks = append(checks, structuralCheck("numero_iscrizione", number, passed, notes))
	}

	if registered, ok := fields["data_iscrizione"]; ok {
		passed, notes := saneDate(registered, time.Now().UTC())
		checks = append(checks, structuralCheck("data_iscrizione", registered, passed, notes))
	}

	return checks
}
