// Package kv is the persistence primitive behind the device store: a string
// key-value map that survives restarts.
package kv

import (
	"context"
	"sync"
)

// Keys used by the device store.
const (
	KeyEvents             = "events"
	KeySnapshots          = "snapshots"
	KeyTemplates          = "templates"
	KeyAutoBackups        = "auto-backups"
	KeyRecurringTemplates = "recurring-templates"
	KeySession            = "session"
)

// Store is a durable string map.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is an in-process Store. Setting Err makes every call fail with it.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
	Err  error
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.data, key)
	return nil
}
