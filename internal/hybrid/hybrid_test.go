package hybrid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/gathersync/internal/cloudstore"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.New("offline")

// fakeRemote is an in-memory Remote. Setting err makes every call fail.
type fakeRemote[T models.Entity] struct {
	mu      sync.Mutex
	items   []T
	err     error
	creates int
	updates []bool

	// onUpdate lets event tests observe participant reconciliation.
	onUpdate func(old, item T)
}

func (f *fakeRemote[T]) List(context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]T(nil), f.items...), nil
}

func (f *fakeRemote[T]) Get(_ context.Context, id string) (*T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.items {
		if f.items[i].GetID() == id {
			item := f.items[i]
			return &item, nil
		}
	}
	return nil, cloudstore.ErrNotFound
}

func (f *fakeRemote[T]) Create(_ context.Context, item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.creates++
	f.items = append(f.items, item)
	return nil
}

func (f *fakeRemote[T]) Update(_ context.Context, item T, withChildren bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, withChildren)
	for i := range f.items {
		if f.items[i].GetID() == item.GetID() {
			if f.onUpdate != nil && withChildren {
				f.onUpdate(f.items[i], item)
			}
			f.items[i] = item
			return nil
		}
	}
	return cloudstore.ErrNotFound
}

func (f *fakeRemote[T]) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	kept := f.items[:0]
	for _, item := range f.items {
		if item.GetID() != id {
			kept = append(kept, item)
		}
	}
	f.items = kept
	return nil
}

var signedIn = session.Static{Token: "tok", User: &session.Profile{ID: "u1"}}

type fixture struct {
	store     *Store
	kv        *kv.Memory
	events    *fakeRemote[models.Event]
	snapshots *fakeRemote[models.EventSnapshot]
	templates *fakeRemote[models.GroupTemplate]
}

func newFixture(t *testing.T, sess session.Provider) *fixture {
	t.Helper()
	f := &fixture{
		kv:        kv.NewMemory(),
		events:    &fakeRemote[models.Event]{},
		snapshots: &fakeRemote[models.EventSnapshot]{},
		templates: &fakeRemote[models.GroupTemplate]{},
	}
	f.store = NewWithRemotes(Deps{
		KV:      f.kv,
		Session: sess,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}, f.events, f.snapshots, f.templates)
	return f
}

func newEvent(id, name string) models.Event {
	return models.Event{
		ID:        id,
		Name:      name,
		EventType: models.EventTypeFlexible,
		Month:     2,
		Year:      2026,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetAllSignedOutUsesLocalOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.Static{})
	f.events.items = []models.Event{newEvent("cloud", "Cloud only")}

	outcome, err := f.store.Events.Add(ctx, newEvent("e1", "Dinner"))
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, outcome.Status)

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Zero(t, f.events.creates)
}

func TestGetAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	f.events.items = []models.Event{newEvent("c1", "From cloud")}
	_, err := f.store.Events.Add(ctx, newEvent("l1", "From device"))
	require.NoError(t, err)

	first, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	second, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestGetAllCloudWinsOnID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	local := newEvent("x", "Local name")
	require.NoError(t, f.store.Events.local.Save(ctx, []models.Event{local, newEvent("y", "Only local")}))
	cloud := newEvent("x", "Cloud name")
	f.events.items = []models.Event{cloud, newEvent("z", "Only cloud")}

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Cloud name", events[0].Name)
	assert.Equal(t, "y", events[1].ID)
	assert.Equal(t, "z", events[2].ID)
}

func TestGetAllUploadsWhenCloudIsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	require.NoError(t, f.store.Events.local.Save(ctx, []models.Event{newEvent("a", "A"), newEvent("b", "B")}))

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, f.events.creates)
}

func TestGetAllUploadOmitsTombstones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	gone := newEvent("gone", "Gone")
	deletedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	gone.DeletedAt = &deletedAt
	require.NoError(t, f.store.Events.local.Save(ctx, []models.Event{gone, newEvent("kept", "Kept")}))

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "kept", events[0].ID)
	require.Len(t, f.events.items, 1)
	assert.Equal(t, "kept", f.events.items[0].ID)
}

func TestGetAllOnlyTombstonesUploadsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	gone := newEvent("gone", "Gone")
	deletedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	gone.DeletedAt = &deletedAt
	require.NoError(t, f.store.Events.local.Save(ctx, []models.Event{gone}))

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, f.events.creates)
}

func TestGetAllSkipsSoftDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.Static{})

	gone := newEvent("gone", "Gone")
	deletedAt := time.Now()
	gone.DeletedAt = &deletedAt
	require.NoError(t, f.store.Events.local.Save(ctx, []models.Event{gone, newEvent("kept", "Kept")}))

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "kept", events[0].ID)
}

func TestAddSurvivesCloudFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	f.events.err = errOffline

	outcome, err := f.store.Events.Add(ctx, newEvent("e1", "Dinner"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorIs(t, outcome.Err, errOffline)

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)

	got, err := f.store.Events.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Name)
}

func TestAddLocalFailurePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	f.kv.Err = errors.New("disk full")

	_, err := f.store.Events.Add(ctx, newEvent("e1", "Dinner"))
	require.Error(t, err)
	assert.Zero(t, f.events.creates)
}

func TestAddRejectsInvalidBeforePersisting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	bad := newEvent("e1", "")
	_, err := f.store.Events.Add(ctx, bad)
	assert.ErrorIs(t, err, models.ErrValidation)

	bad = newEvent("e2", "Dinner")
	bad.Participants = []models.Participant{{ID: "p1", Name: "  "}}
	_, err = f.store.Events.Add(ctx, bad)
	assert.ErrorIs(t, err, models.ErrValidation)

	events, err := f.store.Events.local.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, f.events.creates)
}

func TestAddExistingIDReplaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.Static{})

	_, err := f.store.Events.Add(ctx, newEvent("e1", "First"))
	require.NoError(t, err)
	_, err = f.store.Events.Add(ctx, newEvent("e1", "Second"))
	require.NoError(t, err)

	events, err := f.store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Second", events[0].Name)
}

func TestUpdatePreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	e := newEvent("e1", "Old")
	e.VenueName = "Cafe"
	e.MeetingType = models.MeetingInPerson
	e.TeamLeader = "Ann"
	e.ReminderDaysBefore = models.Ptr(2)
	e.Participants = []models.Participant{{ID: "p1", Name: "Ann", Availability: map[string]bool{"2026-02-01": true}}}
	_, err := f.store.Events.Add(ctx, e)
	require.NoError(t, err)

	updated, outcome, err := f.store.Events.Update(ctx, "e1", models.EventPatch{Name: models.Ptr("New")})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, outcome.Status)
	assert.Equal(t, []bool{false}, f.events.updates)

	got, err := f.store.Events.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, updated, *got)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "Cafe", got.VenueName)
	assert.Equal(t, models.MeetingInPerson, got.MeetingType)
	assert.Equal(t, "Ann", got.TeamLeader)
	require.NotNil(t, got.ReminderDaysBefore)
	assert.Equal(t, 2, *got.ReminderDaysBefore)
	assert.Equal(t, e.Participants, got.Participants)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got.UpdatedAt)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	f := newFixture(t, signedIn)

	_, _, err := f.store.Events.Update(context.Background(), "nope", models.EventPatch{Name: models.Ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCloudOnlyRecordIsMirroredLocally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	f.events.items = []models.Event{newEvent("c1", "Cloud")}

	_, _, err := f.store.Events.Update(ctx, "c1", models.EventPatch{VenueName: models.Ptr("Park")})
	require.NoError(t, err)

	local, err := f.store.Events.local.Load(ctx)
	require.NoError(t, err)
	require.Len(t, local, 1)
	assert.Equal(t, "Park", local[0].VenueName)
}

func TestUpdateParticipantsIssuesDiff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	var deletes, creates, updates int
	f.events.onUpdate = func(old, item models.Event) {
		diff := cloudstore.DiffParticipants(old.Participants, item.Participants)
		deletes += len(diff.Deleted)
		creates += len(diff.Created)
		updates += len(diff.Updated)
	}

	e := newEvent("e1", "Dinner")
	e.Participants = []models.Participant{{ID: "p1", Name: "Ann"}, {ID: "p2", Name: "Ben"}}
	_, err := f.store.Events.Add(ctx, e)
	require.NoError(t, err)

	_, outcome, err := f.store.Events.Update(ctx, "e1", models.EventPatch{
		Participants: []models.Participant{{ID: "p2", Name: "Ben"}, {ID: "p3", Name: "Cat"}},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Synced())
	assert.Equal(t, []bool{true}, f.events.updates)
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, updates)
}

func TestUpdateSnapshotsIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.Static{})
	_, err := f.store.Snapshots.Add(ctx, models.EventSnapshot{ID: "s1", EventID: "e1", Event: newEvent("e1", "Dinner")})
	require.NoError(t, err)

	_, _, err = f.store.Snapshots.Update(ctx, "s1", snapshotRename("x"))
	assert.ErrorIs(t, err, ErrImmutable)
}

type snapshotRename string

func (r snapshotRename) Apply(s *models.EventSnapshot) { s.Name = string(r) }

func TestTemplatesUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	_, err := f.store.Templates.Add(ctx, models.GroupTemplate{ID: "t1", Name: "Family", ParticipantNames: []string{"Ann"}})
	require.NoError(t, err)

	got, _, err := f.store.Templates.Update(ctx, "t1", models.GroupTemplatePatch{ParticipantNames: []string{"Ann", "Ben"}})
	require.NoError(t, err)
	assert.Equal(t, "Family", got.Name)
	assert.Equal(t, []string{"Ann", "Ben"}, got.ParticipantNames)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	_, err := f.store.Events.Add(ctx, newEvent("e1", "Dinner"))
	require.NoError(t, err)

	f.events.err = errOffline
	outcome, err := f.store.Events.Delete(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, outcome.Status)

	local, err := f.store.Events.local.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, local)
}

func TestGetByIDFallsBackWhenCloudFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)
	_, err := f.store.Events.Add(ctx, newEvent("e1", "Dinner"))
	require.NoError(t, err)
	f.events.err = errOffline

	got, err := f.store.Events.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Name)

	_, err = f.store.Events.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddAsync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	require.NoError(t, f.store.Events.AddAsync(ctx, newEvent("e1", "Dinner")))
	f.store.Wait()
	assert.Equal(t, 1, f.events.creates)
}

func TestPull(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, signedIn)

	stale := newEvent("shared", "Stale")
	localOnly := newEvent("mine", "Mine")
	newerLocal := newEvent("fresh", "Fresh locally")
	newerLocal.UpdatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.store.Events.local.Save(ctx, []models.Event{stale, localOnly, newerLocal}))

	cloudShared := newEvent("shared", "Updated in cloud")
	cloudShared.UpdatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	olderCloud := newEvent("fresh", "Old in cloud")
	f.events.items = []models.Event{cloudShared, newEvent("new", "New in cloud"), olderCloud}

	stats, err := f.store.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, PullStats{Added: 1, Updated: 1}, stats)

	local, err := f.store.Events.local.Load(ctx)
	require.NoError(t, err)
	names := map[string]string{}
	for _, e := range local {
		names[e.ID] = e.Name
	}
	assert.Equal(t, map[string]string{
		"shared": "Updated in cloud",
		"mine":   "Mine",
		"fresh":  "Fresh locally",
		"new":    "New in cloud",
	}, names)
}

func TestPullSignedOutIsNoop(t *testing.T) {
	f := newFixture(t, session.Static{})
	f.events.items = []models.Event{newEvent("c1", "Cloud")}

	stats, err := f.store.Pull(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats)
}

func TestNewWithoutCloudIsLocalOnly(t *testing.T) {
	ctx := context.Background()
	store := New(Deps{KV: kv.NewMemory(), Session: signedIn})

	outcome, err := store.Events.Add(ctx, newEvent("e1", "Dinner"))
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, outcome.Status)
}
