// Package postgresql provides PostgreSQL persistence for qualification runs.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence/sqlbase"
	_ "github.com/lib/pq" // postgres driver
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db               *sql.DB
	logger           *slog.Logger
	runRepo          *RunRepository
	verificationRepo *VerificationRepository
}

// NewPersistence connects, runs migrations and returns a ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:               database,
		logger:           logger,
		runRepo:          NewRunRepository(database, logger),
		verificationRepo: NewVerificationRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) CreateRun(ctx context.Context, run *models.WorkflowRun) error {
	return p.runRepo.Create(ctx, run)
}

func (p *Persistence) UpdateRun(ctx context.Context, run *models.WorkflowRun) error {
	return p.runRepo.Update(ctx, run)
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	return p.runRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveStepResult(ctx context.Context, step *models.StepResult) error {
	return p.runRepo.SaveStep(ctx, step)
}

func (p *Persistence) StepResultsByRun(ctx context.Context, runID string) ([]*models.StepResult, error) {
	return p.runRepo.StepsByRun(ctx, runID)
}

func (p *Persistence) SaveVerification(ctx context.Context, result *models.VerificationResult) error {
	return p.verificationRepo.Save(ctx, result)
}

func (p *Persistence) VerificationsByRun(ctx context.Context, runID string) ([]*models.VerificationResult, error) {
	return p.verificationRepo.GetByRun(ctx, runID)
}
