package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/storage"
)

var eventColumns = []string{
	"id", "name", "event_type", "month", "year", "fixed_date", "fixed_time",
	"reminder_days_before", "reminder_scheduled", "archived", "finalized",
	"finalized_date", "details", "created_at", "updated_at", "deleted_at",
}

// eventDetails holds the meeting metadata kept in the details column.
type eventDetails struct {
	TeamLeader        string                    `json:"teamLeader,omitempty"`
	TeamLeaderPhone   string                    `json:"teamLeaderPhone,omitempty"`
	MeetingType       models.MeetingType        `json:"meetingType,omitempty"`
	VenueName         string                    `json:"venueName,omitempty"`
	VenueAddress      string                    `json:"venueAddress,omitempty"`
	VenueContact      string                    `json:"venueContact,omitempty"`
	VenuePhone        string                    `json:"venuePhone,omitempty"`
	MeetingLink       string                    `json:"meetingLink,omitempty"`
	RSVPDeadline      string                    `json:"rsvpDeadline,omitempty"`
	MeetingNotes      string                    `json:"meetingNotes,omitempty"`
	AttendanceRecords []models.AttendanceRecord `json:"attendanceRecords,omitempty"`
}

func eventRow(e *models.Event) (map[string]any, error) {
	details, err := json.Marshal(eventDetails{
		TeamLeader:        e.TeamLeader,
		TeamLeaderPhone:   e.TeamLeaderPhone,
		MeetingType:       e.MeetingType,
		VenueName:         e.VenueName,
		VenueAddress:      e.VenueAddress,
		VenueContact:      e.VenueContact,
		VenuePhone:        e.VenuePhone,
		MeetingLink:       e.MeetingLink,
		RSVPDeadline:      e.RSVPDeadline,
		MeetingNotes:      e.MeetingNotes,
		AttendanceRecords: e.AttendanceRecords,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode event details: %w", err)
	}

	eventType := e.EventType
	if eventType == "" {
		eventType = models.EventTypeFlexible
	}
	var reminder any
	if e.ReminderDaysBefore != nil {
		reminder = *e.ReminderDaysBefore
	}

	return map[string]any{
		"name":                 e.Name,
		"event_type":           string(eventType),
		"month":                e.Month,
		"year":                 e.Year,
		"fixed_date":           e.FixedDate,
		"fixed_time":           e.FixedTime,
		"reminder_days_before": reminder,
		"reminder_scheduled":   boolInt(e.ReminderScheduled),
		"archived":             boolInt(e.Archived),
		"finalized":            boolInt(e.Finalized),
		"finalized_date":       e.FinalizedDate,
		"details":              string(details),
		"created_at":           toMillis(e.CreatedAt),
		"updated_at":           toMillis(e.UpdatedAt),
		"deleted_at":           nullableMillis(e.DeletedAt),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e                          models.Event
		eventType, details         string
		reminder, deletedAt        sql.NullInt64
		scheduled, archived, final int
		createdAt, updatedAt       int64
	)
	err := row.Scan(
		&e.ID, &e.Name, &eventType, &e.Month, &e.Year, &e.FixedDate, &e.FixedTime,
		&reminder, &scheduled, &archived, &final,
		&e.FinalizedDate, &details, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	var d eventDetails
	if err := json.Unmarshal([]byte(details), &d); err != nil {
		return nil, fmt.Errorf("failed to decode event details: %w", err)
	}

	e.EventType = models.EventType(eventType)
	if reminder.Valid {
		days := int(reminder.Int64)
		e.ReminderDaysBefore = &days
	}
	e.ReminderScheduled = scheduled == 1
	e.Archived = archived == 1
	e.Finalized = final == 1
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	e.DeletedAt = fromNullMillis(deletedAt)

	e.TeamLeader = d.TeamLeader
	e.TeamLeaderPhone = d.TeamLeaderPhone
	e.MeetingType = d.MeetingType
	e.VenueName = d.VenueName
	e.VenueAddress = d.VenueAddress
	e.VenueContact = d.VenueContact
	e.VenuePhone = d.VenuePhone
	e.MeetingLink = d.MeetingLink
	e.RSVPDeadline = d.RSVPDeadline
	e.MeetingNotes = d.MeetingNotes
	e.AttendanceRecords = d.AttendanceRecords
	e.Participants = []models.Participant{}

	return &e, nil
}

// ListEvents returns the owner's live events in creation order.
func (s *SQLiteStore) ListEvents(ctx context.Context, ownerID string) ([]models.Event, error) {
	rows, err := s.query(ctx, builder.Select(eventColumns...).
		From("events").
		Where(sq.Eq{"owner_id": ownerID, "deleted_at": nil}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		index[e.ID] = len(events)
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	if len(events) == 0 {
		return []models.Event{}, nil
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	byEvent, err := s.participantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for eventID, participants := range byEvent {
		events[index[eventID]].Participants = participants
	}
	return events, nil
}

// GetEvent retrieves an event with its participants.
func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row, err := s.queryRow(ctx, builder.Select(eventColumns...).From("events").Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, err
	}
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	participants, err := s.ListParticipants(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Participants = participants
	return e, nil
}

func (s *SQLiteStore) EventOwner(ctx context.Context, id string) (string, error) {
	row, err := s.queryRow(ctx, builder.Select("owner_id").From("events").Where(sq.Eq{"id": id}))
	if err != nil {
		return "", err
	}
	var owner string
	if err := row.Scan(&owner); errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	} else if err != nil {
		return "", fmt.Errorf("failed to get event owner: %w", err)
	}
	return owner, nil
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, ownerID string, e *models.Event) error {
	row, err := eventRow(e)
	if err != nil {
		return err
	}
	row["id"] = e.ID
	row["owner_id"] = ownerID

	if _, err := s.exec(ctx, builder.Insert("events").SetMap(row)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("event %s: %w", e.ID, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateEvent(ctx context.Context, e *models.Event) error {
	row, err := eventRow(e)
	if err != nil {
		return err
	}
	// Creation time is immutable.
	delete(row, "created_at")

	res, err := s.exec(ctx, builder.Update("events").SetMap(row).Where(sq.Eq{"id": e.ID}))
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireAffected(res, "event", e.ID)
}

// DeleteEvent hard-deletes the participants, then the event.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM participants WHERE event_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete participants: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if err := requireAffected(res, "event", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListPendingReminders(ctx context.Context) ([]storage.PendingReminder, error) {
	cols := append([]string{"owner_id"}, eventColumns...)
	rows, err := s.query(ctx, builder.Select(cols...).
		From("events").
		Where(sq.And{
			sq.NotEq{"reminder_days_before": nil},
			sq.Eq{"reminder_scheduled": 0, "archived": 0, "deleted_at": nil},
		}).
		OrderBy("created_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending reminders: %w", err)
	}
	defer rows.Close()

	var pending []storage.PendingReminder
	for rows.Next() {
		var owner string
		e, err := scanEvent(ownerScanner{rows: rows, owner: &owner})
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		pending = append(pending, storage.PendingReminder{OwnerID: owner, Event: *e})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range pending {
		participants, err := s.ListParticipants(ctx, pending[i].Event.ID)
		if err != nil {
			return nil, err
		}
		pending[i].Event.Participants = participants
	}
	return pending, nil
}

func (s *SQLiteStore) MarkReminderScheduled(ctx context.Context, eventID string) error {
	res, err := s.exec(ctx, builder.Update("events").Set("reminder_scheduled", 1).Where(sq.Eq{"id": eventID}))
	if err != nil {
		return fmt.Errorf("failed to mark reminder: %w", err)
	}
	return requireAffected(res, "event", eventID)
}

// ownerScanner reads a leading owner_id column before the event columns.
type ownerScanner struct {
	rows  *sql.Rows
	owner *string
}

func (o ownerScanner) Scan(dest ...any) error {
	return o.rows.Scan(append([]any{o.owner}, dest...)...)
}
