// Package file provides file-based persistence for qualification runs. It is
// intended for development and tests; production deployments use postgresql.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/ecampo/vendiq/pkg/persistence"
	"github.com/google/uuid"
)

// Persistence implements persistence.Persistence on top of a directory tree:
//
//	<root>/runs/<run_id>.json
//	<root>/steps/<run_id>/<order_index>.json
//	<root>/verifications/<run_id>/<verification_id>.json
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a new instance rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists or can be created.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	return os.MkdirAll(fp.root, 0o755)
}

func (fp *Persistence) runPath(id string) string {
	return filepath.Join(fp.root, "runs", id+".json")
}

// CreateRun persists a new run record, minting a v7 UUID when the caller did
// not set one. The run must not already exist.
func (fp *Persistence) CreateRun(_ context.Context, run *models.WorkflowRun) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if run.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewRunError("CreateRun", run.ID, err)
		}

		run.ID = id.String()
	}

	if _, err := os.Stat(fp.runPath(run.ID)); err == nil {
		return persistence.NewRunError("CreateRun", run.ID, persistence.ErrRunAlreadyExists)
	}

	return fp.writeRun("CreateRun", run)
}

// UpdateRun overwrites an existing run record.
func (fp *Persistence) UpdateRun(_ context.Context, run *models.WorkflowRun) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if _, err := os.Stat(fp.runPath(run.ID)); errors.Is(err, os.ErrNotExist) {
		return persistence.NewRunError("UpdateRun", run.ID, persistence.ErrRunNotFound)
	}

	return fp.writeRun("UpdateRun", run)
}

func (fp *Persistence) writeRun(op string, run *models.WorkflowRun) error {
	if err := os.MkdirAll(filepath.Join(fp.root, "runs"), 0o755); err != nil {
		return persistence.NewRunError(op, run.ID, err)
	}

	// Steps are stored separately; the run file carries only run-level state.
	stored := *run
	stored.Steps = nil

	payload, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return persistence.NewRunError(op, run.ID, err)
	}

	if err := os.WriteFile(fp.runPath(run.ID), payload, 0o644); err != nil {
		return persistence.NewRunError(op, run.ID, err)
	}

	return nil
}

// RunByID loads a run together with its step results, ordered by order_index.
func (fp *Persistence) RunByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.loadRun(ctx, id)
}

func (fp *Persistence) loadRun(ctx context.Context, id string) (*models.WorkflowRun, error) {
	payload, err := os.ReadFile(fp.runPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
		}

		return nil, persistence.NewRunError("RunByID", id, err)
	}

	var run models.WorkflowRun
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	steps, err := fp.stepResultsByRun(ctx, id)
	if err != nil {
		return nil, err
	}

	run.Steps = steps

	return &run, nil
}

// SaveStepResult persists one step result under its owning run.
func (fp *Persistence) SaveStepResult(_ context.Context, step *models.StepResult) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if step.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewRunError("SaveStepResult", step.RunID, err)
		}

		step.ID = id.String()
	}

	dir := filepath.Join(fp.root, "steps", step.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return persistence.NewRunError("SaveStepResult", step.RunID, err)
	}

	payload, err := json.MarshalIndent(step, "", "  ")
	if err != nil {
		return persistence.NewRunError("SaveStepResult", step.RunID, err)
	}

	name := fmt.Sprintf("%03d.json", step.OrderIndex)
	if err := os.WriteFile(filepath.Join(dir, name), payload, 0o644); err != nil {
		return persistence.NewRunError("SaveStepResult", step.RunID, err)
	}

	return nil
}

// StepResultsByRun returns the step results of a run ordered by order_index.
func (fp *Persistence) StepResultsByRun(ctx context.Context, runID string) ([]*models.StepResult, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.stepResultsByRun(ctx, runID)
}

func (fp *Persistence) stepResultsByRun(_ context.Context, runID string) ([]*models.StepResult, error) {
	dir := filepath.Join(fp.root, "steps", runID)

	entries, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil || len(entries) == 0 {
		return []*models.StepResult{}, nil
	}

	sort.Strings(entries)

	steps := make([]*models.StepResult, 0, len(entries))

	for _, entry := range entries {
		payload, err := os.ReadFile(filepath.Join(dir, entry))
		if err != nil {
			return nil, persistence.NewRunError("StepResultsByRun", runID, err)
		}

		var step models.StepResult
		if err := json.Unmarshal(payload, &step); err != nil {
			return nil, persistence.NewRunError("StepResultsByRun", runID, err)
		}

		steps = append(steps, &step)
	}

	return steps, nil
}

// SaveVerification persists one verification result under its owning run.
func (fp *Persistence) SaveVerification(_ context.Context, result *models.VerificationResult) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if result.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return persistence.NewRunError("SaveVerification", result.RunID, err)
		}

		result.ID = id.String()
	}

	dir := filepath.Join(fp.root, "verifications", result.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return persistence.NewRunError("SaveVerification", result.RunID, err)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return persistence.NewRunError("SaveVerification", result.RunID, err)
	}

	path := filepath.Join(dir, result.ID+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return persistence.NewRunError("SaveVerification", result.RunID, err)
	}

	return nil
}

// VerificationsByRun returns all verification results recorded for a run,
// ordered by creation time.
func (fp *Persistence) VerificationsByRun(_ context.Context, runID string) ([]*models.VerificationResult, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	dir := filepath.Join(fp.root, "verifications", runID)

	entries, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil || len(entries) == 0 {
		return []*models.VerificationResult{}, nil
	}

	results := make([]*models.VerificationResult, 0, len(entries))

	for _, entry := range entries {
		payload, err := os.ReadFile(filepath.Join(dir, entry))
		if err != nil {
			return nil, persistence.NewRunError("VerificationsByRun", runID, err)
		}

		var result models.VerificationResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, persistence.NewRunError("VerificationsByRun", runID, err)
		}

		results = append(results, &result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})

	return results, nil
}
