package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "gathersync-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, id string) {
	t.Helper()
	now := time.Now().UTC()
	err := store.CreateUser(context.Background(), &models.User{
		ID: id, Email: id + "@example.com", DisplayName: id, PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func TestEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "owner")

	created := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	days := 2
	event := &models.Event{
		ID:                 "e1",
		Name:               "Board games",
		EventType:          models.EventTypeFlexible,
		Month:              2,
		Year:               2026,
		ReminderDaysBefore: &days,
		VenueName:          "Cafe",
		MeetingType:        models.MeetingInPerson,
		AttendanceRecords:  []models.AttendanceRecord{{Date: "2026-02-05", Attendees: []string{"p1"}}},
		CreatedAt:          created,
		UpdatedAt:          created,
	}

	t.Run("CreateEvent and GetEvent round trip", func(t *testing.T) {
		if err := store.CreateEvent(ctx, "owner", event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		got, err := store.GetEvent(ctx, "e1")
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got.Name != "Board games" || got.VenueName != "Cafe" || got.MeetingType != models.MeetingInPerson {
			t.Errorf("GetEvent = %+v", got)
		}
		if got.ReminderDaysBefore == nil || *got.ReminderDaysBefore != 2 {
			t.Errorf("ReminderDaysBefore = %v, want 2", got.ReminderDaysBefore)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
		}
		if len(got.AttendanceRecords) != 1 || got.Participants == nil {
			t.Errorf("AttendanceRecords = %v, Participants = %v", got.AttendanceRecords, got.Participants)
		}
	})

	t.Run("CreateEvent with taken id fails", func(t *testing.T) {
		err := store.CreateEvent(ctx, "owner", event)
		if !errors.Is(err, storage.ErrAlreadyExists) {
			t.Errorf("CreateEvent error = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("participants keep insertion order", func(t *testing.T) {
		for _, p := range []models.Participant{
			{ID: "p2", Name: "Zed", Availability: map[string]bool{"2026-02-05": true}},
			{ID: "p1", Name: "Amy"},
		} {
			if err := store.CreateParticipant(ctx, "e1", &p); err != nil {
				t.Fatalf("CreateParticipant failed: %v", err)
			}
		}
		got, err := store.ListParticipants(ctx, "e1")
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != "p2" || got[1].ID != "p1" {
			t.Fatalf("ListParticipants = %+v", got)
		}
		if !got[0].Availability["2026-02-05"] || got[1].Availability == nil {
			t.Errorf("availability = %v / %v", got[0].Availability, got[1].Availability)
		}

		eventID, err := store.ParticipantEvent(ctx, "p1")
		if err != nil || eventID != "e1" {
			t.Errorf("ParticipantEvent = %q, %v", eventID, err)
		}
	})

	t.Run("UpdateEvent keeps participants and creation time", func(t *testing.T) {
		update := *event
		update.Name = "Board games night"
		update.CreatedAt = time.Now()
		if err := store.UpdateEvent(ctx, &update); err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}

		events, err := store.ListEvents(ctx, "owner")
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 1 || events[0].Name != "Board games night" || len(events[0].Participants) != 2 {
			t.Fatalf("ListEvents = %+v", events)
		}
		if !events[0].CreatedAt.Equal(created) {
			t.Errorf("CreatedAt changed to %v", events[0].CreatedAt)
		}
	})

	t.Run("pending reminders", func(t *testing.T) {
		pending, err := store.ListPendingReminders(ctx)
		if err != nil {
			t.Fatalf("ListPendingReminders failed: %v", err)
		}
		if len(pending) != 1 || pending[0].OwnerID != "owner" || len(pending[0].Event.Participants) != 2 {
			t.Fatalf("ListPendingReminders = %+v", pending)
		}
		if err := store.MarkReminderScheduled(ctx, "e1"); err != nil {
			t.Fatalf("MarkReminderScheduled failed: %v", err)
		}
		pending, _ = store.ListPendingReminders(ctx)
		if len(pending) != 0 {
			t.Errorf("ListPendingReminders after mark = %+v", pending)
		}
	})

	t.Run("DeleteEvent removes participants", func(t *testing.T) {
		if err := store.DeleteEvent(ctx, "e1"); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
		if _, err := store.GetEvent(ctx, "e1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetEvent after delete error = %v", err)
		}
		if _, err := store.ParticipantEvent(ctx, "p1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("participant survived event delete: %v", err)
		}
		if err := store.DeleteEvent(ctx, "e1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteEvent error = %v", err)
		}
	})
}

func TestSnapshotsAndTemplates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "owner")
	createUser(t, store, "other")

	snap := &models.EventSnapshot{
		ID: "s1", EventID: "e1", Name: "before trim", SavedAt: time.Now().UTC(),
		Event: models.Event{ID: "e1", Name: "Dinner", Month: 3, Year: 2026},
	}
	if err := store.CreateSnapshot(ctx, "owner", snap); err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}
	snapshots, err := store.ListSnapshots(ctx, "owner")
	if err != nil || len(snapshots) != 1 || snapshots[0].Event.Name != "Dinner" {
		t.Fatalf("ListSnapshots = %+v, %v", snapshots, err)
	}
	if err := store.DeleteSnapshot(ctx, "other", "s1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteSnapshot by non-owner error = %v", err)
	}

	tmpl := &models.GroupTemplate{ID: "t1", Name: "Family", ParticipantNames: []string{"Ann", "Ben"}, CreatedAt: time.Now()}
	if err := store.CreateTemplate(ctx, "owner", tmpl); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	tmpl.ParticipantNames = append(tmpl.ParticipantNames, "Cy")
	if err := store.UpdateTemplate(ctx, "owner", tmpl); err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}
	templates, err := store.ListTemplates(ctx, "owner")
	if err != nil || len(templates) != 1 || len(templates[0].ParticipantNames) != 3 {
		t.Fatalf("ListTemplates = %+v, %v", templates, err)
	}
	if others, _ := store.ListTemplates(ctx, "other"); len(others) != 0 {
		t.Errorf("ListTemplates leaked across owners: %+v", others)
	}
}

func TestPushTokens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "u1")
	createUser(t, store, "u2")

	token := &models.PushToken{Token: "ExponentPushToken[abc]", UserID: "u1", Platform: "ios", CreatedAt: time.Now()}
	if err := store.SavePushToken(ctx, token); err != nil {
		t.Fatalf("SavePushToken failed: %v", err)
	}
	token.UserID = "u2"
	if err := store.SavePushToken(ctx, token); err != nil {
		t.Fatalf("SavePushToken re-register failed: %v", err)
	}

	if got, _ := store.ListPushTokens(ctx, "u1"); len(got) != 0 {
		t.Errorf("u1 tokens = %+v, want none", got)
	}
	got, err := store.ListPushTokens(ctx, "u2")
	if err != nil || len(got) != 1 {
		t.Fatalf("u2 tokens = %+v, %v", got, err)
	}
	if err := store.DeletePushToken(ctx, "u2", token.Token); err != nil {
		t.Fatalf("DeletePushToken failed: %v", err)
	}
	if got, _ := store.ListPushTokens(ctx, "u2"); len(got) != 0 {
		t.Errorf("tokens after delete = %+v", got)
	}
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createUser(t, store, "alice")

	user, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil || user == nil || user.ID != "alice" {
		t.Fatalf("GetUserByEmail = %+v, %v", user, err)
	}
	missing, err := store.GetUserByID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("GetUserByID(missing) = %+v, %v", missing, err)
	}
}
