package runlock

import (
	"context"
	"sync"
)

// Memory is a process-local locker for single-instance deployments and tests.
type Memory struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]bool)}
}

func (m *Memory) Acquire(_ context.Context, supplierID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held[supplierID] {
		return nil, ErrRunInProgress
	}

	m.held[supplierID] = true

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		delete(m.held, supplierID)
	}, nil
}
