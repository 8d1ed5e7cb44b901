// Package kv defines the session-scoped key-value store behind channel
// persistence and task-result recovery.
//
// The store mirrors browser session storage semantics: survive navigation
// within a session, discard on session end. It is injected rather than
// accessed ambiently so the backend can be swapped without touching the
// chat engine.
package kv

import (
	"sync"

	"github.com/bytedance/sonic"
)

// Store is a narrow key-value interface over session-scoped state.
// Values are stored as serialized JSON; loss of the whole store is
// expected and non-fatal to callers.
type Store interface {
	// Get unmarshals the value for key into v. Returns false when absent.
	Get(key string, v interface{}) (bool, error)

	// Set marshals v and stores it under key.
	Set(key string, v interface{}) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string)

	// Clear removes all keys.
	Clear()
}

// Memory is an in-process Store. One instance backs one session.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get unmarshals the value for key into v.
func (m *Memory) Get(key string, v interface{}) (bool, error) {
	m.mu.RLock()
	data, ok := m.values[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set marshals v and stores it under key.
func (m *Memory) Set(key string, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
}

// Clear removes all keys.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.values = make(map[string][]byte)
	m.mu.Unlock()
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
