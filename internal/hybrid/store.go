package hybrid

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/gathersync/internal/cloudstore"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/localstore"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/session"
)

// Deps are the collaborators of a Store. Cloud may be nil for a device that
// never syncs.
type Deps struct {
	KV      kv.Store
	Cloud   *cloudstore.Client
	Session session.Provider
	Logger  *slog.Logger
	Now     func() time.Time
}

// Store is the device's view of every synced collection.
type Store struct {
	Events    *Collection[models.Event]
	Snapshots *Collection[models.EventSnapshot]
	Templates *Collection[models.GroupTemplate]
}

func New(d Deps) *Store {
	var (
		events    Remote[models.Event]
		snapshots Remote[models.EventSnapshot]
		templates Remote[models.GroupTemplate]
	)
	if d.Cloud != nil {
		events, snapshots, templates = d.Cloud.Events, d.Cloud.Snapshots, d.Cloud.Templates
	}
	return NewWithRemotes(d, events, snapshots, templates)
}

// NewWithRemotes builds a Store over explicit remotes. Any nil remote keeps
// that collection local-only.
func NewWithRemotes(d Deps, events Remote[models.Event], snapshots Remote[models.EventSnapshot], templates Remote[models.GroupTemplate]) *Store {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	s := &Store{
		Events:    newCollection("event", localstore.New[models.Event](d.KV, kv.KeyEvents), events, d),
		Snapshots: newCollection("snapshot", localstore.New[models.EventSnapshot](d.KV, kv.KeySnapshots), snapshots, d),
		Templates: newCollection("template", localstore.New[models.GroupTemplate](d.KV, kv.KeyTemplates), templates, d),
	}
	s.Snapshots.immutable = true
	return s
}

// Pull brings cloud events onto the device. Local-only events are left
// alone; a local event is replaced only when the cloud copy is newer.
func (s *Store) Pull(ctx context.Context) (PullStats, error) {
	return s.Events.Pull(ctx, func(cloud, local models.Event) bool {
		return cloud.UpdatedAt.After(local.UpdatedAt)
	})
}

// Wait blocks until background uploads of every collection finish.
func (s *Store) Wait() {
	s.Events.Wait()
	s.Snapshots.Wait()
	s.Templates.Wait()
}
