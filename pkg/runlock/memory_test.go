package runlock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAcquireAndRelease(t *testing.T) {
	locker := NewMemory()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "supplier-1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "supplier-1")
	require.ErrorIs(t, err, ErrRunInProgress)

	// A different supplier is unaffected.
	otherRelease, err := locker.Acquire(ctx, "supplier-2")
	require.NoError(t, err)
	otherRelease()

	release()

	release, err = locker.Acquire(ctx, "supplier-1")
	require.NoError(t, err)
	release()
}

func TestNoopNeverBlocks(t *testing.T) {
	locker := NewNoop()
	ctx := context.Background()

	first, err := locker.Acquire(ctx, "supplier-1")
	require.NoError(t, err)

	second, err := locker.Acquire(ctx, "supplier-1")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		first()
		second()
	})
}
