package storage

import (
	"context"
	"sync"
)

// Memory is an in-memory adapter. It is the default for tests and for
// hosts that opt out of persistence across restarts.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]string
	available bool
}

// NewMemory creates an available in-memory adapter
func NewMemory() *Memory {
	return &Memory{
		items:     make(map[string]string),
		available: true,
	}
}

// SetAvailable toggles simulated availability, for failure-path tests
func (m *Memory) SetAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// IsAvailable reports simulated availability
func (m *Memory) IsAvailable(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available
}

// GetItem returns the stored value or ErrNotFound
func (m *Memory) GetItem(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.available {
		return "", errUnavailable
	}
	value, ok := m.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetItem stores a value
func (m *Memory) SetItem(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return errUnavailable
	}
	m.items[key] = value
	return nil
}

// RemoveItem deletes a key
func (m *Memory) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return errUnavailable
	}
	delete(m.items, key)
	return nil
}

// Len returns the number of stored keys
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
