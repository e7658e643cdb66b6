// Package runlock provides advisory per-supplier locking so concurrent
// qualification runs for the same supplier are rejected before a run record
// is created.
package runlock

import (
	"context"
	"errors"
)

// ErrRunInProgress indicates another run already holds the supplier lock.
var ErrRunInProgress = errors.New("a qualification run is already in progress for this supplier")

// Locker acquires an advisory lock for one supplier. Release must be called
// exactly once when the run finishes; it is safe under a failed run.
type Locker interface {
	Acquire(ctx context.Context, supplierID string) (release func(), err error)
}

// Noop performs no locking. Deployments that accept concurrent duplicate
// submissions, or serialize them upstream, use this.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Acquire(_ context.Context, _ string) (func(), error) {
	return func() {}, nil
}
