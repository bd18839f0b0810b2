package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/gathersync/internal/auth"
	"github.com/mmynk/gathersync/internal/cloudstore"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/middleware"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/notify"
	"github.com/mmynk/gathersync/internal/service"
	"github.com/mmynk/gathersync/internal/session"
	"github.com/mmynk/gathersync/internal/storage/sqlite"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
)

var testNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	app *App
	out *bytes.Buffer
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T, cloud func(session.Provider) *cloudstore.Client) *harness {
	t.Helper()
	mem := kv.NewMemory()
	sess := session.NewStore(mem)
	out := &bytes.Buffer{}

	d := Deps{KV: mem, Session: sess, Logger: quietLogger(), Out: out, In: strings.NewReader(""), Now: func() time.Time { return testNow }}
	if cloud != nil {
		d.Cloud = cloud(sess)
	}
	app := New(d)
	app.password = func(string) (string, error) { return "password123", nil }
	return &harness{app: app, out: out}
}

// run executes one command and returns what it printed.
func (h *harness) run(t *testing.T, args ...string) string {
	t.Helper()
	h.out.Reset()
	require.NoError(t, h.app.Run(context.Background(), args), "gathersync %s", strings.Join(args, " "))
	return h.out.String()
}

// createdID extracts the id from "Created event <id> (<name>)".
func createdID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 3, "unexpected output %q", out)
	return fields[2]
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, h.app.Run(ctx, nil), ErrUsage)
	assert.ErrorIs(t, h.app.Run(ctx, []string{"frobnicate"}), ErrUsage)
	assert.ErrorIs(t, h.app.Run(ctx, []string{"backup"}), ErrUsage)
	assert.ErrorIs(t, h.app.Run(ctx, []string{"show"}), ErrUsage)
	assert.Error(t, h.app.Run(ctx, []string{"login", "-email", "a@b.c"}), "no sync server configured")
	assert.Error(t, h.app.Run(ctx, []string{"sync"}))

	h.out.Reset()
	require.NoError(t, h.app.Run(ctx, []string{"help"}))
	assert.Contains(t, h.out.String(), "import-availability")
}

func TestCreateMarkAndBestDays(t *testing.T) {
	h := newHarness(t, nil)

	out := h.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026", "-participants", "Ann, Bob")
	assert.Contains(t, out, "saved on this device only")
	id := createdID(t, out)

	h.run(t, "mark", "-event", id, "-name", "Ann", "-available", "3,5-6")
	h.run(t, "mark", "-name", "bob", "-available", "5", "-unavailable", "3", id)

	event, err := h.app.store.Events.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, event.Participants, 2, "bob must match Bob")
	assert.Equal(t, map[string]bool{"2026-02-05": true, "2026-02-03": false}, event.Participants[1].Availability)

	assert.Equal(t, "2026-02-05  2 available (100%)\n", h.run(t, "best", id))
	assert.Contains(t, h.run(t, "show", id), "  5:2 *")
	assert.Contains(t, h.run(t, "status", id), "partial")

	out = h.run(t, "mark", "-name", "Cara", "-all-month", id)
	assert.Contains(t, out, "Cara")
	assert.Regexp(t, `(?m)^Cara\s+responded$`, h.run(t, "status", id))

	assert.Contains(t, h.run(t, "events"), "Dinner")
	assert.Contains(t, h.run(t, "finalize", id), "finalized for 2026-02-05")

	path := filepath.Join(t.TempDir(), "dinner.ics")
	h.run(t, "ics", "-o", path, "-tz", "UTC", id)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "20260205")

	h.run(t, "archive", id)
	assert.Equal(t, "No events\n", h.run(t, "events"))
	assert.Contains(t, h.run(t, "events", "-archived"), " archived")

	h.run(t, "delete", id)
	assert.Equal(t, "No events\n", h.run(t, "events", "-archived"))
}

func TestMarkAllMonth(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	id := createdID(t, h.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026", "-participants", "Ann"))

	h.run(t, "mark", "-name", "Ann", "-available", "3", id)
	assert.Equal(t, "2026-02-03  1 available (100%)\n", h.run(t, "best", id))

	h.run(t, "mark", "-name", "Ann", "-all-month", id)
	event, err := h.app.store.Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, event.Participants[0].UnavailableAllMonth)
	assert.Empty(t, event.Participants[0].Availability, "day answers are dropped")

	h.run(t, "mark", "-name", "Ann", "-phone", "555", id)
	event, err = h.app.store.Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, event.Participants[0].UnavailableAllMonth, "other edits keep the blanket decline")
	assert.Equal(t, "555", event.Participants[0].Phone)
	assert.Equal(t, "No availability yet\n", h.run(t, "best", id))

	h.run(t, "mark", "-name", "Ann", "-all-month=false", "-available", "4", id)
	event, err = h.app.store.Events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, event.Participants[0].UnavailableAllMonth)
	assert.Equal(t, "2026-02-04  1 available (100%)\n", h.run(t, "best", id))
}

func TestRemoveParticipant(t *testing.T) {
	h := newHarness(t, nil)
	id := createdID(t, h.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026", "-participants", "Ann,Bob"))
	h.run(t, "mark", "-name", "Ann", "-available", "5", id)
	h.run(t, "mark", "-name", "Bob", "-available", "5,6", id)

	assert.Contains(t, h.run(t, "remove-participant", "-name", "bob", id), "Removed Bob from Dinner")

	assert.Equal(t, "2026-02-05  1 available (100%)\n", h.run(t, "best", id))
	assert.NotContains(t, h.run(t, "status", id), "Bob")

	event, err := h.app.store.Events.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, event.Participants, 2, "the tombstone is kept")
	require.NotNil(t, event.Participants[1].DeletedAt)
	assert.True(t, event.Participants[1].DeletedAt.Equal(testNow))

	err = h.app.Run(context.Background(), []string{"remove-participant", "-name", "Bob", id})
	assert.Error(t, err, "already removed")
	assert.ErrorIs(t, h.app.Run(context.Background(), []string{"remove-participant", id}), ErrUsage)
}

func TestRemoveParticipantReachesCloudAsUpdate(t *testing.T) {
	server, store := newServer(t)
	phone := newHarness(t, func(p session.Provider) *cloudstore.Client {
		return cloudstore.New(server.Client(), server.URL, p, cloudstore.Timeouts{})
	})
	phone.run(t, "register", "-email", "ann@example.com", "-name", "Ann")

	id := createdID(t, phone.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026", "-participants", "Ann,Bob"))
	phone.run(t, "mark", "-name", "Bob", "-available", "9", id)

	out := phone.run(t, "remove-participant", "-name", "Bob", id)
	assert.NotContains(t, out, "saved on this device")

	participants, err := store.ListParticipants(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, participants, 2, "the server keeps the participant row")
	removed := make(map[string]bool)
	for _, p := range participants {
		removed[p.Name] = p.DeletedAt != nil
	}
	assert.Equal(t, map[string]bool{"Ann": false, "Bob": true}, removed)

	assert.Equal(t, "No availability yet\n", phone.run(t, "best", id))
}

func TestMarkRejectsDaysOutsideMonth(t *testing.T) {
	h := newHarness(t, nil)
	id := createdID(t, h.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026"))

	err := h.app.Run(context.Background(), []string{"mark", "-name", "Ann", "-available", "30", id})
	assert.ErrorIs(t, err, ErrUsage)
}

func TestFixedEventRSVP(t *testing.T) {
	h := newHarness(t, nil)
	id := createdID(t, h.run(t, "create", "-name", "Meetup", "-date", "2026-03-14", "-time", "18:30", "-participants", "Ann,Bob", "-reminder", "2"))

	event, err := h.app.store.Events.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, event.IsFixed())
	assert.Equal(t, 3, event.Month)
	require.NotNil(t, event.ReminderDaysBefore)
	assert.Equal(t, 2, *event.ReminderDaysBefore)

	h.run(t, "rsvp", "-name", "Ann", "-status", "attending", id)
	assert.Contains(t, h.run(t, "show", id), "Attending: 1  Not attending: 0  No response: 1")
	assert.Contains(t, h.run(t, "status", id), "rsvp=attending")
	assert.Equal(t, "Fixed event on 2026-03-14\n", h.run(t, "best", id))
}

func TestTemplatesAndSnapshots(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.run(t, "template", "save", "-name", "Crew", "-participants", "Ann,Bob")
	templates, err := h.app.store.Templates.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	tid := templates[0].ID

	id := createdID(t, h.run(t, "create", "-name", "Board games", "-template", tid, "-participants", "Cara"))
	event, err := h.app.store.Events.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, event.Participants, 3)
	assert.Equal(t, "Ann", event.Participants[0].Name)
	assert.Equal(t, "Cara", event.Participants[2].Name)

	assert.Contains(t, h.run(t, "template", "rename", "-name", "Crew 2", tid), "Crew 2")
	assert.Contains(t, h.run(t, "template", "list"), "Crew 2: Ann, Bob")

	h.run(t, "snapshot", "save", "-name", "before vote", id)
	assert.Contains(t, h.run(t, "snapshot", "list"), "before vote (event "+id+")")

	snaps, err := h.app.store.Snapshots.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	h.run(t, "snapshot", "delete", snaps[0].ID)
	assert.Equal(t, "No snapshots\n", h.run(t, "snapshot", "list"))

	h.run(t, "template", "delete", tid)
	assert.Equal(t, "No templates\n", h.run(t, "template", "list"))
}

func TestBackupExportImport(t *testing.T) {
	h := newHarness(t, nil)
	id := createdID(t, h.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026"))

	assert.Contains(t, h.run(t, "backup", "create"), "Created backup auto_")
	assert.Contains(t, h.run(t, "backup", "list"), "Manual backup")

	path := filepath.Join(t.TempDir(), "export.json")
	assert.Contains(t, h.run(t, "export", "-o", path), "Exported 1 events")
	assert.Contains(t, h.run(t, "backup", "list"), "Before manual export")

	h.run(t, "delete", id)
	assert.Equal(t, "No events\n", h.run(t, "events"))

	assert.Contains(t, h.run(t, "import", "-file", path), "Imported 1 events")
	assert.Contains(t, h.run(t, "events"), id)
	assert.Contains(t, h.run(t, "backup", "list"), "pre-import")

	backups, err := h.app.backups.List(context.Background())
	require.NoError(t, err)
	h.run(t, "backup", "delete", backups[0].ID)
	h.run(t, "backup", "clear")
	assert.Equal(t, "No backups\n", h.run(t, "backup", "list"))
}

func TestImportAvailability(t *testing.T) {
	h := newHarness(t, nil)
	id := createdID(t, h.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026", "-participants", "Ann"))

	path := filepath.Join(t.TempDir(), "grid.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,1,2\nann,Y,N\nCara,1,\n"), 0o644))

	assert.Contains(t, h.run(t, "import-availability", "-file", path, id), "Imported 2 rows: 1 updated, 1 added")

	event, err := h.app.store.Events.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, event.Participants, 2)
	assert.Equal(t, map[string]bool{"2026-02-01": true, "2026-02-02": false}, event.Participants[0].Availability)
	assert.Equal(t, "Cara", event.Participants[1].Name)

	assert.Contains(t, h.run(t, "import-availability", "-example", id), "Name,1,2")
}

func TestCleanupKeepsEarliest(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	for i, created := range []time.Time{testNow, testNow.Add(-time.Hour), testNow.Add(time.Hour)} {
		_, err := h.app.store.Events.Add(ctx, models.Event{
			ID: "dup" + string(rune('a'+i)), Name: "Dinner", Month: 2, Year: 2026, CreatedAt: created,
		})
		require.NoError(t, err)
	}
	_, err := h.app.store.Events.Add(ctx, models.Event{ID: "solo", Name: "Lunch", Month: 2, Year: 2026})
	require.NoError(t, err)

	out := h.run(t, "cleanup")
	assert.Contains(t, out, "events: removed 2 duplicates of Dinner")
	assert.Contains(t, out, "templates: removed 0 duplicates")

	events, err := h.app.store.Events.GetAll(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"dupb", "solo"}, ids)
	assert.Contains(t, h.run(t, "backup", "list"), "Before duplicate cleanup")
}

func TestRecurringGenerate(t *testing.T) {
	h := newHarness(t, nil)

	out := h.run(t, "recurring", "add", "-name", "Standup", "-pattern", "weekly", "-day", "monday", "-participants", "Ann,Bob")
	assert.Contains(t, out, "Every Monday")
	assert.Contains(t, h.run(t, "recurring", "list"), "first this month 2026-02-02")

	assert.Contains(t, h.run(t, "generate", "-month", "2026-03"), "Generated Standup")
	assert.Equal(t, "Nothing to generate for 2026-03\n", h.run(t, "generate", "-month", "2026-03"))
	assert.Contains(t, h.run(t, "recurring", "list"), "last generated 2026-03")

	events, err := h.app.store.Events.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Month)
	assert.Len(t, events[0].Participants, 2)

	templates, err := h.app.recurring.Templates(context.Background())
	require.NoError(t, err)
	h.run(t, "recurring", "pause", templates[0].ID)
	assert.Contains(t, h.run(t, "recurring", "list"), "(paused)")
	assert.Equal(t, "Nothing to generate for 2026-04\n", h.run(t, "generate", "-month", "2026-04"))

	h.run(t, "recurring", "delete", templates[0].ID)
	assert.Equal(t, "No recurring templates\n", h.run(t, "recurring", "list"))
}

func TestParseDays(t *testing.T) {
	got, err := parseDays("3, 5-7,2026-02-20", 2026, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-03", "2026-02-05", "2026-02-06", "2026-02-07", "2026-02-20"}, got)

	_, err = parseDays("29", 2026, 2)
	assert.ErrorIs(t, err, ErrUsage)
	_, err = parseDays("7-5", 2026, 2)
	assert.Error(t, err)

	got, err = parseDays("", 2026, 2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

type quietNotifier struct{}

func (quietNotifier) NotifyUser(context.Context, string, notify.Payload) {}

// newServer runs the real services over a temporary database.
func newServer(t *testing.T) (*httptest.Server, *sqlite.SQLiteStore) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("commands-test-secret-commands-test", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	notifier := quietNotifier{}
	protected := connect.WithInterceptors(middleware.RequireAuth(jwtManager))
	optional := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, store, jwtManager, quietLogger()), optional))
	mux.Handle(apiconnect.NewEventServiceHandler(service.NewEventService(store), protected))
	mux.Handle(apiconnect.NewParticipantServiceHandler(service.NewParticipantService(store, notifier), protected))
	mux.Handle(apiconnect.NewSnapshotServiceHandler(service.NewSnapshotService(store), protected))
	mux.Handle(apiconnect.NewTemplateServiceHandler(service.NewTemplateService(store), protected))
	mux.Handle(apiconnect.NewPushServiceHandler(service.NewPushService(store), protected))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func TestSyncAcrossDevices(t *testing.T) {
	server, _ := newServer(t)
	cloud := func(p session.Provider) *cloudstore.Client {
		return cloudstore.New(server.Client(), server.URL, p, cloudstore.Timeouts{})
	}

	phone := newHarness(t, cloud)
	assert.Equal(t, "Not signed in\n", phone.run(t, "whoami"))

	out := phone.run(t, "register", "-email", "Ann@Example.com", "-name", "Ann")
	assert.Contains(t, out, "Signed in as ann@example.com")
	assert.Contains(t, out, "0 events available")
	assert.Contains(t, phone.run(t, "whoami"), "Ann (ann@example.com)")

	out = phone.run(t, "create", "-name", "Dinner", "-month", "2", "-year", "2026", "-participants", "Ann,Bob")
	assert.NotContains(t, out, "saved on this device", "signed-in writes reach the cloud")
	id := createdID(t, out)
	phone.run(t, "mark", "-name", "Bob", "-available", "7", id)

	laptop := newHarness(t, cloud)
	out = laptop.run(t, "login", "-email", "ann@example.com")
	assert.Contains(t, out, "1 events available")
	assert.Equal(t, "2026-02-07  1 available (50%)\n", laptop.run(t, "best", id))

	assert.Contains(t, laptop.run(t, "sync"), "Pulled 1 new and 0 updated events")
	phone.run(t, "mark", "-name", "Ann", "-available", "7", id)
	assert.Equal(t, "2026-02-07  2 available (100%)\n", laptop.run(t, "best", id))

	laptop.run(t, "logout")
	assert.Equal(t, "Not signed in\n", laptop.run(t, "whoami"))
	assert.Contains(t, laptop.run(t, "events"), "Dinner", "local data survives sign-out")
	assert.ErrorIs(t, laptop.app.Run(context.Background(), []string{"sync"}), errSignedOut)
}
