package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/gathersync/internal/hybrid"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*Manager, *hybrid.Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := hybrid.New(hybrid.Deps{KV: mem, Session: session.Static{}, Logger: logger})

	m := NewManager(store, mem, logger)
	clock := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return m, store, mem
}

func sampleEvent(id, name string) models.Event {
	return models.Event{ID: id, Name: name, EventType: models.EventTypeFlexible, Month: 2, Year: 2026}
}

func TestCreateBackupCapsRing(t *testing.T) {
	ctx := context.Background()
	m, store, _ := setupManager(t)
	_, err := store.Events.Add(ctx, sampleEvent("e1", "Dinner"))
	require.NoError(t, err)

	var ids []string
	for i := 0; i <= MaxAutoBackups; i++ {
		id, err := m.CreateBackup(ctx, fmt.Sprintf("run %d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	backups, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, MaxAutoBackups)
	assert.Equal(t, ids[len(ids)-1], backups[0].ID, "newest first")
	for _, b := range backups {
		assert.NotEqual(t, ids[0], b.ID, "oldest backup should be discarded")
		assert.True(t, strings.HasPrefix(b.ID, "auto_"))
	}
	assert.Equal(t, 1, backups[0].Data.Counts().Events)
}

func TestRestoreReaddsRecords(t *testing.T) {
	ctx := context.Background()
	m, store, _ := setupManager(t)

	_, err := store.Events.Add(ctx, sampleEvent("e1", "Dinner"))
	require.NoError(t, err)
	_, err = store.Templates.Add(ctx, models.GroupTemplate{ID: "t1", Name: "Family"})
	require.NoError(t, err)

	id, err := m.CreateBackup(ctx, "manual")
	require.NoError(t, err)

	_, err = store.Events.Delete(ctx, "e1")
	require.NoError(t, err)
	_, err = store.Templates.Delete(ctx, "t1")
	require.NoError(t, err)

	counts, err := m.Restore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Counts{Events: 1, Templates: 1}, counts)

	events, err := store.Events.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dinner", events[0].Name)

	_, err = m.Restore(ctx, "missing")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupManager(t)

	first, err := m.CreateBackup(ctx, "a")
	require.NoError(t, err)
	_, err = m.CreateBackup(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, first))
	assert.ErrorIs(t, m.Delete(ctx, first), ErrBackupNotFound)

	backups, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "b", backups[0].Reason)

	require.NoError(t, m.Clear(ctx))
	backups, err = m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	source, sourceStore, _ := setupManager(t)
	_, err := sourceStore.Events.Add(ctx, sampleEvent("e1", "Dinner"))
	require.NoError(t, err)
	_, err = sourceStore.Snapshots.Add(ctx, models.EventSnapshot{ID: "s1", EventID: "e1", Event: sampleEvent("e1", "Dinner")})
	require.NoError(t, err)

	env, err := source.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExportVersion, env.Version)

	var buf bytes.Buffer
	require.NoError(t, WriteEnvelope(&buf, env))
	assert.Contains(t, buf.String(), `"exportedAt"`)

	read, err := ReadEnvelope(&buf)
	require.NoError(t, err)

	target, targetStore, _ := setupManager(t)
	_, err = targetStore.Events.Add(ctx, sampleEvent("existing", "Lunch"))
	require.NoError(t, err)

	counts, err := target.Import(ctx, read)
	require.NoError(t, err)
	assert.Equal(t, Counts{Events: 1, Snapshots: 1}, counts)

	events, err := targetStore.Events.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	backups, err := target.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, "pre-import", backups[0].Reason)
	assert.Equal(t, 1, backups[0].Data.Counts().Events)
}

func TestImportAbortsWhenBackupFails(t *testing.T) {
	ctx := context.Background()
	m, _, mem := setupManager(t)
	mem.Err = errors.New("storage unavailable")

	_, err := m.Import(ctx, &Envelope{Version: ExportVersion, ExportedAt: "2026-02-01T00:00:00Z", Data: Data{Events: []models.Event{sampleEvent("e1", "Dinner")}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to back up before import")
}

func TestReadEnvelopeRejectsBadFiles(t *testing.T) {
	for name, input := range map[string]string{
		"not json":        "{",
		"missing version": `{"exportedAt":"2026-02-01","events":[]}`,
		"missing events":  `{"version":"1.0","exportedAt":"2026-02-01"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadEnvelope(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrInvalidExport)
		})
	}
}
