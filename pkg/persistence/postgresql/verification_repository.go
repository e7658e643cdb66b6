package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/google/uuid"
)

// VerificationRepository handles document-verification database operations.
type VerificationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewVerificationRepository creates a new verification repository.
func NewVerificationRepository(db *sql.DB, logger *slog.Logger) *VerificationRepository {
	return &VerificationRepository{db: db, logger: logger}
}

// Save inserts one verification result. Results are append-only: a re-run of
// the same step creates a new row.
func (r *VerificationRepository) Save(ctx context.Context, result *models.VerificationResult) error {
	if result.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewRunError("SaveVerification", result.RunID, err)
		}

		result.ID = id.String()
	}

	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(result.Fields)
	if err != nil {
		return persistence.NewRunError("SaveVerification", result.RunID, err)
	}

	discrepanciesJSON, err := json.Marshal(result.Discrepancies)
	if err != nil {
		return persistence.NewRunError("SaveVerification", result.RunID, err)
	}

	query := `
		INSERT INTO document_verification (
			id, run_id, step_key, document_type, overall_result, confidence_score, fields, discrepancies, analysis, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		result.ID,
		result.RunID,
		result.StepKey,
		result.DocumentType,
		result.Overall,
		result.ConfidenceScore,
		fieldsJSON,
		discrepanciesJSON,
		result.Analysis,
		result.CreatedAt,
	)
	if err != nil {
		return persistence.NewRunError("SaveVerification", result.RunID, err)
	}

	return nil
}

// GetByRun returns all verification results recorded for a run.
func (r *VerificationRepository) GetByRun(ctx context.Context, runID string) ([]*models.VerificationResult, error) {
	query := `
		SELECT
			id
		  , run_id
		  , step_key
		  , document_type
		  , overall_result
		  , confidence_score
		  , fields
		  , discrepancies
		  , analysis
		  , created_at
		FROM document_verification
		WHERE run_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, persistence.NewRunError("VerificationsByRun", runID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	results := make([]*models.VerificationResult, 0)

	for rows.Next() {
		var (
			result            models.VerificationResult
			fieldsJSON        []byte
			discrepanciesJSON []byte
		)

		err := rows.Scan(
			&result.ID,
			&result.RunID,
			&result.StepKey,
			&result.DocumentType,
			&result.Overall,
			&result.ConfidenceScore,
			&fieldsJSON,
			&discrepanciesJSON,
			&result.Analysis,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, persistence.NewRunError("VerificationsByRun", runID, err)
		}

		if err := json.Unmarshal(fieldsJSON, &result.Fields); err != nil {
			return nil, persistence.NewRunError("VerificationsByRun", runID, err)
		}

		if err := json.Unmarshal(discrepanciesJSON, &result.Discrepancies); err != nil {
			return nil, persistence.NewRunError("VerificationsByRun", runID, err)
		}

		results = append(results, &result)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRunError("VerificationsByRun", runID, err)
	}

	return results, nil
}
