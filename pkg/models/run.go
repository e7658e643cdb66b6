// Package models defines the core domain models for supplier qualification runs.
package models

import "time"

// RunStatus represents the lifecycle state of a qualification run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// IsTerminal reports whether the status is a final state. Status only moves
// forward: running transitions to exactly one terminal state and never back.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCanceled
}

// Outcome is the overall qualification verdict of a completed run.
type Outcome string

const (
	OutcomeQualified              Outcome = "qualified"
	OutcomeConditionallyQualified Outcome = "conditionally_qualified"
	OutcomeNotQualified           Outcome = "not_qualified"
)

// WorkflowRun is one qualification run for a supplier. It is created with
// status running, mutated only by the orchestrator, and never deleted.
// EndedAt is set if and only if the status is terminal.
type WorkflowRun struct {
	ID           string        `json:"id"`
	SupplierID   string        `json:"supplier_id"   validate:"required"`
	WorkflowType string        `json:"workflow_type" validate:"required"`
	Status       RunStatus     `json:"status"        validate:"required"`
	Outcome      *Outcome      `json:"outcome,omitempty"`
	Notes        []string      `json:"notes"`
	Steps        []*StepResult `json:"steps,omitempty"`
	TriggeredBy  string        `json:"triggered_by,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
}

// AddNote appends a free-text note to the run.
func (r *WorkflowRun) AddNote(note string) {
	r.Notes = append(r.Notes, note)
}

// Finish moves the run to a terminal state and stamps EndedAt.
func (r *WorkflowRun) Finish(status RunStatus, at time.Time) {
	r.Status = status
	r.EndedAt = &at
}

// RunOptions controls which optional steps take part in a full run.
type RunOptions struct {
	IncludeSOA       bool   `json:"include_soa"`
	IncludeWhiteList bool   `json:"include_white_list"`
	TriggeredBy      string `json:"triggered_by,omitempty" validate:"omitempty,min=1"`
}
