package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/google/uuid"
)

// RunRepository handles run and step-result database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// Create inserts a new run record.
func (r *RunRepository) Create(ctx context.Context, run *models.WorkflowRun) error {
	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewRunError("CreateRun", "", err)
		}

		run.ID = id.String()
	}

	notesJSON, err := json.Marshal(run.Notes)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	query := `
		INSERT INTO workflow_runs (
			id, supplier_id, workflow_type, status, outcome, notes, triggered_by, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.SupplierID,
		run.WorkflowType,
		run.Status,
		outcomeValue(run.Outcome),
		notesJSON,
		nullString(run.TriggeredBy),
		run.StartedAt,
		run.EndedAt,
	)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	return nil
}

// Update overwrites the mutable run-level state: status, outcome, notes, ended_at.
func (r *RunRepository) Update(ctx context.Context, run *models.WorkflowRun) error {
	notesJSON, err := json.Marshal(run.Notes)
	if err != nil {
		return persistence.NewRunError("UpdateRun", run.ID, err)
	}

	query := `
		UPDATE workflow_runs
		SET status = $2, outcome = $3, notes = $4, ended_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Status,
		outcomeValue(run.Outcome),
		notesJSON,
		run.EndedAt,
	)
	if err != nil {
		return persistence.NewRunError("UpdateRun", run.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRunError("UpdateRun", run.ID, err)
	}

	if affected == 0 {
		return persistence.NewRunError("UpdateRun", run.ID, persistence.ErrRunNotFound)
	}

	return nil
}

// GetByID loads a run together with its step results.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	query := `
		SELECT
			id
		  , supplier_id
		  , workflow_type
		  , status
		  , outcome
		  , notes
		  , triggered_by
		  , started_at
		  , ended_at
		FROM workflow_runs
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	var (
		run         models.WorkflowRun
		outcome     sql.NullString
		triggeredBy sql.NullString
		notesJSON   []byte
	)

	err := row.Scan(
		&run.ID,
		&run.SupplierID,
		&run.WorkflowType,
		&run.Status,
		&outcome,
		&notesJSON,
		&triggeredBy,
		&run.StartedAt,
		&run.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("RunByID", id, err)
	}

	if outcome.Valid {
		value := models.Outcome(outcome.String)
		run.Outcome = &value
	}

	run.TriggeredBy = triggeredBy.String

	if err := json.Unmarshal(notesJSON, &run.Notes); err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	steps, err := r.StepsByRun(ctx, id)
	if err != nil {
		return nil, err
	}

	run.Steps = steps

	return &run, nil
}

// SaveStep inserts one step result.
func (r *RunRepository) SaveStep(ctx context.Context, step *models.StepResult) error {
	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewRunError("SaveStepResult", step.RunID, err)
		}

		step.ID = id.String()
	}

	issuesJSON, err := json.Marshal(step.Issues)
	if err != nil {
		return persistence.NewRunError("SaveStepResult", step.RunID, err)
	}

	detailsJSON, err := json.Marshal(step.Details)
	if err != nil {
		return persistence.NewRunError("SaveStepResult", step.RunID, err)
	}

	query := `
		INSERT INTO workflow_step_results (
			id, run_id, step_key, display_name, status, issues, details, score, order_index, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		step.ID,
		step.RunID,
		step.Key,
		step.Name,
		step.Status,
		issuesJSON,
		detailsJSON,
		step.Score,
		step.OrderIndex,
		step.StartedAt,
		step.EndedAt,
	)
	if err != nil {
		return persistence.NewRunError("SaveStepResult", step.RunID, err)
	}

	return nil
}

// StepsByRun returns the step results of a run ordered by order_index.
func (r *RunRepository) StepsByRun(ctx context.Context, runID string) ([]*models.StepResult, error) {
	query := `
		SELECT
			id
		  , run_id
		  , step_key
		  , display_name
		  , status
		  , issues
		  , details
		  , score
		  , order_index
		  , started_at
		  , ended_at
		FROM workflow_step_results
		WHERE run_id = $1
		ORDER BY order_index ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, persistence.NewRunError("StepResultsByRun", runID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	steps := make([]*models.StepResult, 0)

	for rows.Next() {
		var (
			step        models.StepResult
			issuesJSON  []byte
			detailsJSON []byte
		)

		err := rows.Scan(
			&step.ID,
			&step.RunID,
			&step.Key,
			&step.Name,
			&step.Status,
			&issuesJSON,
			&detailsJSON,
			&step.Score,
			&step.OrderIndex,
			&step.StartedAt,
			&step.EndedAt,
		)
		if err != nil {
			return nil, persistence.NewRunError("StepResultsByRun", runID, err)
		}

		if err := json.Unmarshal(issuesJSON, &step.Issues); err != nil {
			return nil, persistence.NewRunError("StepResultsByRun", runID, err)
		}

		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &step.Details); err != nil {
				return nil, persistence.NewRunError("StepResultsByRun", runID, err)
			}
		}

		steps = append(steps, &step)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewRunError("StepResultsByRun", runID, fmt.Errorf("error iterating step results: %w", err))
	}

	return steps, nil
}

func outcomeValue(outcome *models.Outcome) any {
	if outcome == nil {
		return nil
	}

	return string(*outcome)
}

func nullString(value string) any {
	if value == "" {
		return nil
	}

	return value
}
