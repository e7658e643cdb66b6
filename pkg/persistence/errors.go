// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRunNotFound indicates a qualification run was not found by the given identifier.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunAlreadyExists indicates a run with the same identifier already exists.
	ErrRunAlreadyExists = errors.New("run already exists")

	// ErrStepNotFound indicates a step result was not found by the given identifier.
	ErrStepNotFound = errors.New("step result not found")

	// ErrVerificationNotFound indicates no verification record exists for the given run.
	ErrVerificationNotFound = errors.New("verification result not found")
)

// RunError wraps run-related errors with additional context. Any failure to
// create or update a run or step record is fatal to the owning run, so callers
// rely on these wrappers to decide whether to abort.
type RunError struct {
	Op      string // Operation being performed (e.g., "CreateRun", "SaveStepResult")
	RunID   string // Run ID if applicable
	Err     error  // Underlying error
	Message string // Additional context message
}

func (e *RunError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s operation failed for run %s: %s (%v)", e.Op, e.RunID, e.Message, e.Err)
	}

	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for run errors.
func (e *RunError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRunError creates a new run error with context.
func NewRunError(op, runID string, err error) *RunError {
	return &RunError{
		Op:    op,
		RunID: runID,
		Err:   err,
	}
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsStepNotFound checks if an error indicates a step result was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}
