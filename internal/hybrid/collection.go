// Package hybrid combines the device store with the cloud store. Writes land
// locally first and are mirrored to the cloud when the device is signed in.
// Reads prefer the cloud and fall back to the device.
package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/gathersync/internal/localstore"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/session"
)

var (
	// ErrNotFound is returned when an id is absent from both stores.
	ErrNotFound = errors.New("not found")
	// ErrImmutable is returned when updating a collection that only supports
	// add and delete.
	ErrImmutable = errors.New("records in this collection cannot be updated")
)

// Remote is the cloud side of a collection.
type Remote[T models.Entity] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item T) error
	// Update overwrites item. withChildren asks the remote to reconcile
	// nested records too.
	Update(ctx context.Context, item T, withChildren bool) error
	Delete(ctx context.Context, id string) error
}

// Patch is a partial T.
type Patch[T any] interface {
	Apply(item *T)
}

type childPatch interface {
	TouchesChildren() bool
}

type validator interface {
	Validate() error
}

// Collection is one synced record type.
type Collection[T models.Entity] struct {
	name      string
	local     *localstore.Collection[T]
	remote    Remote[T]
	session   session.Provider
	logger    *slog.Logger
	now       func() time.Time
	immutable bool

	pending sync.WaitGroup
}

func newCollection[T models.Entity](name string, local *localstore.Collection[T], remote Remote[T], d Deps) *Collection[T] {
	return &Collection[T]{
		name:    name,
		local:   local,
		remote:  remote,
		session: d.Session,
		logger:  d.Logger.With("collection", name),
		now:     d.Now,
	}
}

// authenticated is checked on every call; signing in or out takes effect
// immediately.
func (c *Collection[T]) authenticated(ctx context.Context) bool {
	return c.remote != nil && session.IsAuthenticated(ctx, c.session)
}

// GetAll returns every live record. When signed in, cloud records overwrite
// local ones with the same id. If the cloud is empty while the device has
// live records, those are uploaded and returned. Tombstones stay local.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	local, err := c.local.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !c.authenticated(ctx) {
		return live(local), nil
	}

	cloud, err := c.remote.List(ctx)
	if err != nil {
		c.logger.Warn("Cloud list failed, using local records", "error", err)
		return live(local), nil
	}

	if alive := live(local); len(alive) > 0 && len(cloud) == 0 {
		c.logger.Info("Cloud is empty, uploading local records", "count", len(alive))
		for _, item := range alive {
			if err := c.remote.Create(ctx, item); err != nil {
				c.logger.Warn("Failed to upload local record", "id", item.GetID(), "error", err)
			}
		}
		return alive, nil
	}

	return live(merge(local, cloud)), nil
}

// GetByID asks the cloud first and falls back to scanning GetAll.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if c.authenticated(ctx) {
		item, err := c.remote.Get(ctx, id)
		if err == nil && item != nil {
			return item, nil
		}
		c.logger.Debug("Cloud get missed, scanning all records", "id", id, "error", err)
	}

	items, err := c.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].GetID() == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
}

// Add validates item, stores it locally, then creates it in the cloud.
// Re-adding an existing id replaces the stored record.
func (c *Collection[T]) Add(ctx context.Context, item T) (Outcome, error) {
	if err := c.saveLocal(ctx, item); err != nil {
		return skipped, err
	}
	if !c.authenticated(ctx) {
		return skipped, nil
	}
	return c.report("create", item.GetID(), c.remote.Create(ctx, item)), nil
}

// AddAsync stores item locally and uploads it in the background. Wait blocks
// until background uploads finish.
func (c *Collection[T]) AddAsync(ctx context.Context, item T) error {
	if err := c.saveLocal(ctx, item); err != nil {
		return err
	}
	if !c.authenticated(ctx) {
		return nil
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.report("create", item.GetID(), c.remote.Create(context.WithoutCancel(ctx), item))
	}()
	return nil
}

// Wait blocks until every AddAsync upload has finished.
func (c *Collection[T]) Wait() {
	c.pending.Wait()
}

// Update merges patch over the current record, stores the result locally and
// mirrors it to the cloud.
func (c *Collection[T]) Update(ctx context.Context, id string, patch Patch[T]) (T, Outcome, error) {
	var zero T
	if c.immutable {
		return zero, skipped, fmt.Errorf("%s %s: %w", c.name, id, ErrImmutable)
	}

	current, err := c.GetByID(ctx, id)
	if err != nil {
		return zero, skipped, err
	}

	merged := *current
	patch.Apply(&merged)
	if t, ok := any(&merged).(models.Touchable); ok {
		t.Touch(c.now().UTC())
	}
	if err := c.saveLocal(ctx, merged); err != nil {
		return zero, skipped, err
	}
	if !c.authenticated(ctx) {
		return merged, skipped, nil
	}

	withChildren := false
	if cp, ok := patch.(childPatch); ok {
		withChildren = cp.TouchesChildren()
	}
	return merged, c.report("update", id, c.remote.Update(ctx, merged, withChildren)), nil
}

// Delete removes the record locally and then from the cloud.
func (c *Collection[T]) Delete(ctx context.Context, id string) (Outcome, error) {
	if _, err := c.local.Remove(ctx, id); err != nil {
		return skipped, err
	}
	if !c.authenticated(ctx) {
		return skipped, nil
	}
	return c.report("delete", id, c.remote.Delete(ctx, id)), nil
}

// Pull copies cloud records the device does not have, and replaces local
// records for which newer reports the cloud copy as more recent.
func (c *Collection[T]) Pull(ctx context.Context, newer func(cloud, local T) bool) (PullStats, error) {
	var stats PullStats
	if !c.authenticated(ctx) {
		return stats, nil
	}

	cloud, err := c.remote.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to pull %s: %w", c.name, err)
	}
	for _, item := range cloud {
		existing, err := c.local.Find(ctx, item.GetID())
		if err != nil {
			return stats, err
		}
		switch {
		case existing == nil:
			stats.Added++
		case newer(item, *existing):
			stats.Updated++
		default:
			continue
		}
		if _, err := c.local.Upsert(ctx, item); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// PullStats counts the records a pull changed.
type PullStats struct {
	Added   int
	Updated int
}

func (c *Collection[T]) saveLocal(ctx context.Context, item T) error {
	if v, ok := any(item).(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if _, err := c.local.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to save %s %s locally: %w", c.name, item.GetID(), err)
	}
	return nil
}

func (c *Collection[T]) report(op, id string, err error) Outcome {
	if err != nil {
		c.logger.Warn("Cloud write failed, kept locally", "op", op, "id", id, "error", err)
	} else {
		c.logger.Debug("Cloud write succeeded", "op", op, "id", id)
	}
	return outcomeOf(err)
}

// merge keeps local order and lets cloud records win on id collisions.
// Cloud-only records are appended in cloud order.
func merge[T models.Entity](local, cloud []T) []T {
	index := make(map[string]int, len(local)+len(cloud))
	merged := make([]T, 0, len(local)+len(cloud))
	for _, item := range local {
		index[item.GetID()] = len(merged)
		merged = append(merged, item)
	}
	for _, item := range cloud {
		if i, ok := index[item.GetID()]; ok {
			merged[i] = item
			continue
		}
		index[item.GetID()] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func live[T models.Entity](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if d, ok := any(item).(models.SoftDeletable); ok && d.IsDeleted() {
			continue
		}
		out = append(out, item)
	}
	return out
}
