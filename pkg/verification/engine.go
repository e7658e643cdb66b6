package verification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/protocol"
)

const (
	fullScore    = 100
	expiredScore = 50
)

// Engine runs one verification: it selects the strategy for the document
// type, executes every comparison rule, appends the structural validations
// and aggregates the outcome. The reasoning collaborator is injected; a nil
// reasoner always uses the deterministic fallback.
type Engine struct {
	reasoner protocol.Reasoner
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates a verification engine. reasoner may be nil.
func NewEngine(reasoner protocol.Reasoner, logger *slog.Logger) *Engine {
	return &Engine{
		reasoner: reasoner,
		logger:   logger.With("module", "verification_engine"),
		now:      time.Now,
	}
}

// Verify compares one extracted document against the supplier reference
// record and returns an immutable verification result.
func (e *Engine) Verify(ctx context.Context, extraction *models.DocumentExtraction, supplier *models.Supplier) (*models.VerificationResult, error) {
	strategy, err := StrategyFor(extraction.Type)
	if err != nil {
		return nil, err
	}

	if err := ValidateExtractionPayload(extraction); err != nil {
		return nil, err
	}

	reference := referenceValues(supplier)
	fields := make([]models.VerificationField, 0, len(strategy.Rules))

	for _, rule := range strategy.Rules {
		fields = append(fields, e.compareField(ctx, rule, strategy, extraction.Fields, reference))
	}

	if strategy.Validate != nil {
		fields = append(fields, strategy.Validate(extraction.Fields)...)
	}

	overall, confidence, discrepancies := Aggregate(fields)

	return &models.VerificationResult{
		DocumentType:    extraction.Type,
		Overall:         overall,
		ConfidenceScore: confidence,
		Fields:          fields,
		Discrepancies:   discrepancies,
		Analysis:        buildAnalysis(extraction.Type, overall, confidence, fields),
		CreatedAt:       e.now().UTC(),
	}, nil
}

// compareField executes one comparison rule against one field pair.
func (e *Engine) compareField(ctx context.Context, rule Rule, strategy Strategy, extracted map[string]string, reference map[string]string) models.VerificationField {
	result := models.VerificationField{
		Field:     rule.Field,
		RuleType:  rule.Type,
		Threshold: rule.Threshold,
		Required:  rule.Required,
		Expected:  rule.Expected,
	}

	extractedValue, hasExtracted := extracted[rule.Field]
	if hasExtracted {
		result.Extracted = &extractedValue
	}

	if attribute, mapped := strategy.FieldMappings[rule.Field]; mapped {
		if referenceValue, ok := reference[attribute]; ok {
			result.Reference = &referenceValue
		}
	}

	if !hasExtracted || strings.TrimSpace(extractedValue) == "" {
		result.MatchScore = 0
		result.Status = models.FieldMissing
		result.Notes = "extracted value is absent"

		return result
	}

	switch rule.Type {
	case models.RuleExactMatch:
		e.compareExact(&result, extractedValue)
	case models.RuleFuzzyMatch:
		e.compareFuzzy(ctx, &result, rule, extractedValue)
	case models.RuleStatusCheck:
		e.compareStatus(&result, rule, extractedValue)
	case models.RuleDateValidation:
		e.compareDate(&result, extractedValue)
	default:
		result.MatchScore = 0
		result.Status = models.FieldInvalid
		result.Notes = fmt.Sprintf("unknown rule type %q", rule.Type)
	}

	return result
}

// compareExact scores 100 when the trimmed values are equal, 0 otherwise.
func (e *Engine) compareExact(result *models.VerificationField, extractedValue string) {
	referenceValue := ""
	if result.Reference != nil {
		referenceValue = *result.Reference
	}

	if strings.TrimSpace(extractedValue) == strings.TrimSpace(referenceValue) {
		result.MatchScore = fullScore
	} else {
		result.MatchScore = 0
	}

	result.Status = statusByThreshold(result.MatchScore, result.Threshold)
}

// compareFuzzy delegates to the reasoning collaborator. When the collaborator
// is absent or fails, it falls back to the exact-match rule on normalized
// strings and records the fallback in the notes.
func (e *Engine) compareFuzzy(ctx context.Context, result *models.VerificationField, rule Rule, extractedValue string) {
	referenceValue := ""
	if result.Reference != nil {
		referenceValue = *result.Reference
	}

	if e.reasoner != nil {
		answer, err := e.reasoner.Compare(ctx, extractedValue, referenceValue, rule.Instructions)
		if err == nil {
			if answer.Match {
				result.MatchScore = fullScore
			} else {
				result.MatchScore = 0
			}

			result.Status = statusByThreshold(result.MatchScore, result.Threshold)
			result.Notes = answer.Reason

			return
		}

		e.logger.WarnContext(ctx, "Reasoning service unavailable, using exact-match fallback",
			"field", rule.Field, "error", err)
	}

	if normalize(extractedValue) == normalize(referenceValue) {
		result.MatchScore = fullScore
	} else {
		result.MatchScore = 0
	}

	result.Status = statusByThreshold(result.MatchScore, result.Threshold)
	result.Notes = "fallback: exact-match comparison used (reasoning service unavailable)"
}

// compareStatus normalizes punctuation and case and compares against the
// rule's allow-list. All or nothing, no partial credit.
func (e *Engine) compareStatus(result *models.VerificationField, rule Rule, extractedValue string) {
	normalized := normalize(extractedValue)

	result.MatchScore = 0

	for _, expected := range rule.Expected {
		if normalized == normalize(expected) {
			result.MatchScore = fullScore

			break
		}
	}

	result.Status = statusByThreshold(result.MatchScore, result.Threshold)

	if result.Status != models.FieldMatch {
		result.Notes = fmt.Sprintf("value %q not in expected set %v", extractedValue, rule.Expected)
	}
}

// compareDate parses a day/month/year literal. Malformed input is invalid; a
// well-formed future date passes; a well-formed past date is an expired
// document, which is a business-rule failure rather than a format error.
func (e *Engine) compareDate(result *models.VerificationField, extractedValue string) {
	parsed, err := ParseDate(extractedValue)
	if err != nil {
		result.MatchScore = 0
		result.Status = models.FieldInvalid
		result.Notes = fmt.Sprintf("unparseable date %q", extractedValue)

		return
	}

	if parsed.After(e.now()) {
		result.MatchScore = fullScore
		result.Status = models.FieldMatch

		return
	}

	result.MatchScore = expiredScore
	result.Status = models.FieldMismatch
	result.Notes = fmt.Sprintf("document expired on %s", parsed.Format("02/01/2006"))
}

func statusByThreshold(score, threshold int) models.FieldStatus {
	if score >= threshold {
		return models.FieldMatch
	}

	return models.FieldMismatch
}

var dateLayouts = []string{"02/01/2006", "02-01-2006", "2006-01-02"}

// ParseDate accepts the day/month/year literals found in Italian compliance
// documents, plus ISO dates produced by some extractors.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("no known date layout matches %q", value)
}

// normalize uppercases, strips punctuation and collapses whitespace.
func normalize(value string) string {
	var builder strings.Builder

	for _, r := range strings.ToUpper(strings.TrimSpace(value)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ':
			builder.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}

// buildAnalysis produces the narrative summary attached to a verification
// result. It is deterministic; reasoning-service justifications already live
// in the per-field notes.
func buildAnalysis(docType models.DocumentType, overall models.OverallResult, confidence int, fields []models.VerificationField) string {
	matched := 0

	for _, field := range fields {
		if field.Status == models.FieldMatch {
			matched++
		}
	}

	return fmt.Sprintf("%s verification: %s (%d/%d fields matched, confidence %d%%)",
		strings.ToUpper(string(docType)), overall, matched, len(fields), confidence)
}
