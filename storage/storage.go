// Package storage provides the durable key-value records backing the report
// cache and operation queue. Callers depend only on the Storage interface;
// the SQLite implementation persists across restarts while the memory
// implementation serves environments without a writable data directory.
package storage

import "sync"

// Storage is the minimal capability surface the cache needs from a backing
// store. Implementations must tolerate concurrent callers.
type Storage interface {
	// Get returns the value stored under key, or ok=false when the key is
	// absent or the store cannot be read.
	Get(key string) (value string, ok bool)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Memory is an in-process Storage used when no durable store is available
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Storage
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set implements Storage
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove implements Storage
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
