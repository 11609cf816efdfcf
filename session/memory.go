package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the identity in process memory. It does not survive a
// restart and is used for tests and --ephemeral clients.
type MemoryStore struct {
	mu   sync.RWMutex
	name string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Read(_ context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return orDefault(m.name)
}

func (m *MemoryStore) Write(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = ""
	return nil
}
