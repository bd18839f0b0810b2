package models

import (
	"testing"
	"time"
)

func TestEventRemoveParticipant(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	e := Event{
		ID:   "e1",
		Name: "Dinner",
		Participants: []Participant{
			{ID: "p1", Name: "Ann"},
			{ID: "p2", Name: "Bob"},
		},
	}

	if !e.RemoveParticipant("p2", now) {
		t.Fatal("RemoveParticipant(p2) = false, want true")
	}
	if len(e.Participants) != 2 {
		t.Fatalf("len(Participants) = %d, want the tombstone kept", len(e.Participants))
	}
	if got := e.Participants[1].DeletedAt; got == nil || !got.Equal(now) {
		t.Errorf("DeletedAt = %v, want %v", got, now)
	}
	if !e.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", e.UpdatedAt, now)
	}
	if active := e.ActiveParticipants(); len(active) != 1 || active[0].ID != "p1" {
		t.Errorf("ActiveParticipants() = %+v, want only p1", active)
	}

	if e.RemoveParticipant("p2", now.Add(time.Hour)) {
		t.Error("removing a tombstoned participant again = true, want false")
	}
	if !e.Participants[1].DeletedAt.Equal(now) {
		t.Error("second removal moved DeletedAt")
	}
	if e.RemoveParticipant("missing", now) {
		t.Error("RemoveParticipant(missing) = true, want false")
	}
}
