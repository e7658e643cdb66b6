package models

import "time"

// StepStatus is the verdict of a single qualification step.
type StepStatus string

const (
	StepStatusPass StepStatus = "pass"
	StepStatusFail StepStatus = "fail"
	StepStatusSkip StepStatus = "skip"
)

// Step keys, in the configured execution order. The soa step takes part only
// when RunOptions.IncludeSOA is set; order indexes of the following steps
// shift accordingly.
const (
	StepRegistration       = "registration"
	StepPreliminary        = "preliminary"
	StepDURC               = "durc"
	StepWhiteListInsurance = "whitelist_insurance"
	StepVisura             = "visura"
	StepCertifications     = "certifications"
	StepSOA                = "soa"
	StepScorecard          = "scorecard"
	StepFinalize           = "finalize"
)

// CriticalSteps are the steps whose failure forces the overall outcome to
// not_qualified.
var CriticalSteps = map[string]bool{
	StepRegistration: true,
	StepVisura:       true,
	StepDURC:         true,
}

// StepResult records the execution of one step within a run. OrderIndex is
// positive and strictly increasing within the owning run.
type StepResult struct {
	ID         string         `json:"id"`
	RunID      string         `json:"run_id" validate:"required"`
	Key        string         `json:"key"    validate:"required"`
	Name       string         `json:"name"`
	Status     StepStatus     `json:"status" validate:"required"`
	Issues     []string       `json:"issues"`
	Details    map[string]any `json:"details,omitempty"`
	Score      *float64       `json:"score,omitempty"`
	OrderIndex int            `json:"order_index" validate:"gt=0"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    *time.Time     `json:"ended_at,omitempty"`
}
