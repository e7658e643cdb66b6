// Package events defines event types and structures for qualification run
// lifecycle notifications.
package events

import (
	"time"

	"github.com/ecampo/vendiq/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Kafka topic for qualification lifecycle events.
const Topic = "vendiq.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent    EventType = "run.started"
	RunCompletedEvent  EventType = "run.completed"
	RunFailedEvent     EventType = "run.failed"
	RunCanceledEvent   EventType = "run.canceled"
	StepCompletedEvent EventType = "run.step.completed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	RunID      string         `json:"run_id"`
	SupplierID string         `json:"supplier_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type RunStarted struct {
	BaseEvent

	WorkflowType string `json:"workflow_type"`
	TriggeredBy  string `json:"triggered_by,omitempty"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type RunCompleted struct {
	BaseEvent

	Outcome       models.Outcome `json:"outcome"`
	StepsExecuted int            `json:"steps_executed"`
	DurationMs    int64          `json:"duration_ms"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	Error         string `json:"error"`
	StepsExecuted int    `json:"steps_executed"`
	DurationMs    int64  `json:"duration_ms"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

type RunCanceled struct {
	BaseEvent

	StepsExecuted int   `json:"steps_executed"`
	DurationMs    int64 `json:"duration_ms"`
}

func (e RunCanceled) GetType() EventType {
	return RunCanceledEvent
}

type StepCompleted struct {
	BaseEvent

	StepKey    string            `json:"step_key"`
	Status     models.StepStatus `json:"status"`
	OrderIndex int               `json:"order_index"`
	Issues     []string          `json:"issues,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

func (e StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

func NewBaseEvent(eventType EventType, runID, supplierID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		RunID:      runID,
		SupplierID: supplierID,
		Metadata:   make(map[string]any),
	}
}
