package file

import (
	"context"
	"testing"
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun() *models.WorkflowRun {
	return &models.WorkflowRun{
		SupplierID:   "supplier-1",
		WorkflowType: "supplier_qualification",
		Status:       models.RunStatusRunning,
		Notes:        []string{},
		StartedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndLoadRun(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	run := newRun()
	require.NoError(t, fp.CreateRun(ctx, run))
	require.NotEmpty(t, run.ID)

	loaded, err := fp.RunByID(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.SupplierID, loaded.SupplierID)
	assert.Equal(t, models.RunStatusRunning, loaded.Status)
	assert.Empty(t, loaded.Steps)
}

func TestCreateRunRejectsDuplicate(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	run := newRun()
	require.NoError(t, fp.CreateRun(ctx, run))

	err := fp.CreateRun(ctx, run)
	require.ErrorIs(t, err, persistence.ErrRunAlreadyExists)
}

func TestUpdateRunRequiresExisting(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	run := newRun()
	run.ID = "ghost"

	err := fp.UpdateRun(context.Background(), run)
	require.ErrorIs(t, err, persistence.ErrRunNotFound)
}

func TestUpdateRunPersistsTerminalState(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	run := newRun()
	require.NoError(t, fp.CreateRun(ctx, run))

	outcome := models.OutcomeQualified
	run.Outcome = &outcome
	run.Finish(models.RunStatusCompleted, time.Now().UTC())
	require.NoError(t, fp.UpdateRun(ctx, run))

	loaded, err := fp.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, loaded.Status)
	require.NotNil(t, loaded.Outcome)
	assert.Equal(t, models.OutcomeQualified, *loaded.Outcome)
	assert.NotNil(t, loaded.EndedAt)
}

func TestRunByIDNotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.RunByID(context.Background(), "missing")
	require.True(t, persistence.IsRunNotFound(err))
}

func TestStepResultsOrderedByIndex(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	run := newRun()
	require.NoError(t, fp.CreateRun(ctx, run))

	for _, index := range []int{3, 1, 2} {
		step := &models.StepResult{
			RunID:      run.ID,
			Key:        "step",
			Status:     models.StepStatusPass,
			Issues:     []string{},
			OrderIndex: index,
			StartedAt:  time.Now().UTC(),
		}
		require.NoError(t, fp.SaveStepResult(ctx, step))
		assert.NotEmpty(t, step.ID)
	}

	loaded, err := fp.RunByID(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 3)

	for i, step := range loaded.Steps {
		assert.Equal(t, i+1, step.OrderIndex)
	}
}

func TestSaveAndListVerifications(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	ctx := context.Background()

	first := &models.VerificationResult{
		RunID:        "run-1",
		StepKey:      "durc",
		DocumentType: models.DocumentDURC,
		Overall:      models.ResultMatch,
		CreatedAt:    time.Now().UTC().Add(-time.Minute),
	}
	second := &models.VerificationResult{
		RunID:        "run-1",
		StepKey:      "visura",
		DocumentType: models.DocumentVisura,
		Overall:      models.ResultPartialMatch,
		CreatedAt:    time.Now().UTC(),
	}

	require.NoError(t, fp.SaveVerification(ctx, second))
	require.NoError(t, fp.SaveVerification(ctx, first))

	results, err := fp.VerificationsByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "durc", results[0].StepKey)
	assert.Equal(t, "visura", results[1].StepKey)
}

func TestVerificationsByRunEmpty(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	results, err := fp.VerificationsByRun(context.Background(), "none")
	require.NoError(t, err)
	assert.Empty(t, results)
}
