// Package persistence provides the storage abstraction for qualification runs,
// step results and verification records.
package persistence

import (
	"context"

	"github.com/ecampo/vendiq/pkg/models"
)

type Persistence interface {
	CreateRun(ctx context.Context, run *models.WorkflowRun) error
	UpdateRun(ctx context.Context, run *models.WorkflowRun) error
	RunByID(ctx context.Context, id string) (*models.WorkflowRun, error)

	SaveStepResult(ctx context.Context, step *models.StepResult) error
	StepResultsByRun(ctx context.Context, runID string) ([]*models.StepResult, error)

	SaveVerification(ctx context.Context, result *models.VerificationResult) error
	VerificationsByRun(ctx context.Context, runID string) ([]*models.VerificationResult, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
