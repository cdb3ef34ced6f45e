package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Memory is an in-process Cache. Concurrent misses for the same key share a
// single populate call via singleflight. This is the production default; in a
// multi-process deployment each process holds its own copy, which is
// acceptable for low-frequency admin-only stage edits.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	group  singleflight.Group
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// GetOrPopulate returns the cached value for key, populating it on a miss.
func (m *Memory) GetOrPopulate(ctx context.Context, key string, populate Populate) (string, error) {
	m.mu.RLock()
	value, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		return value, nil
	}

	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have populated
		// between the read above and entering the group.
		m.mu.RLock()
		cached, ok := m.values[key]
		m.mu.RUnlock()
		if ok {
			return cached, nil
		}

		fresh, err := populate(ctx)
		if err != nil {
			return "", err
		}

		m.mu.Lock()
		m.values[key] = fresh
		m.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate clears the given keys.
func (m *Memory) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

var _ Cache = (*Memory)(nil)
