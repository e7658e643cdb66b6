package eventbus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ecampo/vendiq/pkg/channels/gochannel"
	"github.com/ecampo/vendiq/pkg/events"
	"github.com/ecampo/vendiq/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	logger := watermill.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	pub, sub, err := gochannel.CreateTestChannel(logger)
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishAndHandleRunCompleted(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan *events.RunCompleted, 1)

	require.NoError(t, bus.Handle(events.RunCompletedEvent, func(_ context.Context, event any) error {
		completed, ok := event.(*events.RunCompleted)
		require.True(t, ok)
		received <- completed

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	sent := events.RunCompleted{
		BaseEvent:     events.NewBaseEvent(events.RunCompletedEvent, "run-1", "supplier-1"),
		Outcome:       models.OutcomeQualified,
		StepsExecuted: 9,
		DurationMs:    1200,
	}

	require.NoError(t, bus.Publish(ctx, "run-1", sent))

	select {
	case completed := <-received:
		assert.Equal(t, "run-1", completed.RunID)
		assert.Equal(t, models.OutcomeQualified, completed.Outcome)
		assert.Equal(t, 9, completed.StepsExecuted)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run.completed event")
	}
}

func TestUnhandledEventTypesAreAcked(t *testing.T) {
	bus := newTestBus(t)

	received := make(chan struct{}, 1)

	require.NoError(t, bus.Handle(events.RunStartedEvent, func(_ context.Context, _ any) error {
		received <- struct{}{}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for step events; they are acknowledged silently.
	require.NoError(t, bus.Publish(ctx, "run-1", events.StepCompleted{
		BaseEvent: events.NewBaseEvent(events.StepCompletedEvent, "run-1", "supplier-1"),
		StepKey:   models.StepDURC,
		Status:    models.StepStatusPass,
	}))

	require.NoError(t, bus.Publish(ctx, "run-1", events.RunStarted{
		BaseEvent:    events.NewBaseEvent(events.RunStartedEvent, "run-1", "supplier-1"),
		WorkflowType: "supplier_qualification",
	}))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run.started event")
	}
}

func TestGenerateIDIsUnique(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
