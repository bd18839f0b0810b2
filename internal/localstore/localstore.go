// Package localstore keeps each collection as a JSON array under a fixed key
// of a kv.Store. It is the device's source of truth.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/models"
)

// Collection is a JSON array of T stored under one key. Read-modify-write
// cycles are serialized so concurrent writers cannot tear the array.
type Collection[T models.Entity] struct {
	store kv.Store
	key   string
	mu    sync.Mutex
}

func New[T models.Entity](store kv.Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the storage key backing the collection.
func (c *Collection[T]) Key() string { return c.key }

// Load returns every stored item. A missing key is an empty collection.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Save overwrites the collection.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, items)
}

// Find returns the item with id, or nil.
func (c *Collection[T]) Find(ctx context.Context, id string) (*T, error) {
	items, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].GetID() == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Upsert replaces the item with the same id in place, or appends it.
func (c *Collection[T]) Upsert(ctx context.Context, item T) (replaced bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range items {
		if items[i].GetID() == item.GetID() {
			items[i] = item
			return true, c.save(ctx, items)
		}
	}
	return false, c.save(ctx, append(items, item))
}

// Remove deletes the item with id. Removing a missing id is not an error.
func (c *Collection[T]) Remove(ctx context.Context, id string) (removed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, item := range items {
		if item.GetID() == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return false, nil
	}
	return true, c.save(ctx, kept)
}

// Clear drops the key.
func (c *Collection[T]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Remove(ctx, c.key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c.key, err)
	}
	return nil
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.key, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", c.key, err)
	}
	return nil
}
