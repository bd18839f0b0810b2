package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation is wrapped by every validation failure.
var ErrValidation = errors.New("validation failed")

// EventType distinguishes month-scoped scheduling from a pinned date.
type EventType string

const (
	// EventTypeFlexible events collect availability for every day of a month.
	EventTypeFlexible EventType = "flexible"
	// EventTypeFixed events have a single date and collect RSVPs.
	EventTypeFixed EventType = "fixed"
)

// MeetingType describes where a gathering happens.
type MeetingType string

const (
	MeetingInPerson MeetingType = "in-person"
	MeetingVirtual  MeetingType = "virtual"
	MeetingHybrid   MeetingType = "hybrid"
)

// Event represents a gathering being scheduled.
type Event struct {
	// ID is the client-generated identifier (see calendar.GenerateID).
	ID string `json:"id"`

	// Name is the display name of the event. Must not be empty.
	Name string `json:"name"`

	// EventType is flexible or fixed. An empty value is treated as flexible.
	EventType EventType `json:"eventType,omitempty"`

	// Month is 1-12 and Year is the four digit year the event is scheduled in.
	Month int `json:"month"`
	Year  int `json:"year"`

	// FixedDate ("YYYY-MM-DD") and FixedTime ("HH:MM") apply to fixed events only.
	FixedDate string `json:"fixedDate,omitempty"`
	FixedTime string `json:"fixedTime,omitempty"`

	// Participants is the ordered participant list.
	Participants []Participant `json:"participants"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// ReminderDaysBefore enables a push reminder that many days before the event.
	ReminderDaysBefore *int `json:"reminderDaysBefore,omitempty"`
	ReminderScheduled  bool `json:"reminderScheduled,omitempty"`

	Archived      bool   `json:"archived,omitempty"`
	Finalized     bool   `json:"finalized,omitempty"`
	FinalizedDate string `json:"finalizedDate,omitempty"`

	// Meeting details.
	TeamLeader      string      `json:"teamLeader,omitempty"`
	TeamLeaderPhone string      `json:"teamLeaderPhone,omitempty"`
	MeetingType     MeetingType `json:"meetingType,omitempty"`
	VenueName       string      `json:"venueName,omitempty"`
	VenueAddress    string      `json:"venueAddress,omitempty"`
	VenueContact    string      `json:"venueContact,omitempty"`
	VenuePhone      string      `json:"venuePhone,omitempty"`
	MeetingLink     string      `json:"meetingLink,omitempty"`
	RSVPDeadline    string      `json:"rsvpDeadline,omitempty"`
	MeetingNotes    string      `json:"meetingNotes,omitempty"`

	AttendanceRecords []AttendanceRecord `json:"attendanceRecords,omitempty"`

	// DeletedAt marks a tombstone. Readers must filter tombstoned events out.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// AttendanceRecord lists who actually showed up on a given date.
type AttendanceRecord struct {
	Date      string   `json:"date"`
	Attendees []string `json:"attendees"`
}

func (e Event) GetID() string { return e.ID }

func (e Event) IsDeleted() bool { return e.DeletedAt != nil }

func (e *Event) Touch(now time.Time) { e.UpdatedAt = now }

// IsFixed reports whether the event is pinned to a single date.
func (e Event) IsFixed() bool { return e.EventType == EventTypeFixed }

// ActiveParticipants returns participants that have not been soft-deleted.
func (e Event) ActiveParticipants() []Participant {
	active := make([]Participant, 0, len(e.Participants))
	for _, p := range e.Participants {
		if p.DeletedAt == nil {
			active = append(active, p)
		}
	}
	return active
}

// RemoveParticipant tombstones the active participant with the given id and
// reports whether one was found. The participant stays in the list so the
// removal reaches other devices as an ordinary update.
func (e *Event) RemoveParticipant(id string, now time.Time) bool {
	for i := range e.Participants {
		p := &e.Participants[i]
		if p.ID != id || p.DeletedAt != nil {
			continue
		}
		deletedAt := now.UTC()
		p.DeletedAt = &deletedAt
		e.UpdatedAt = deletedAt
		return true
	}
	return false
}

// Validate rejects events that must never reach a store.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: event id is required", ErrValidation)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: event name is required", ErrValidation)
	}
	if e.Month < 1 || e.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrValidation, e.Month)
	}
	if e.Year < 1 {
		return fmt.Errorf("%w: year %d out of range", ErrValidation, e.Year)
	}
	switch e.EventType {
	case "", EventTypeFlexible:
	case EventTypeFixed:
		if e.FixedDate == "" {
			return fmt.Errorf("%w: fixed event requires a date", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, e.EventType)
	}
	for _, p := range e.Participants {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
