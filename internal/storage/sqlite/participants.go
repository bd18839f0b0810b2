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

var participantColumns = []string{
	"id", "event_id", "name", "availability", "unavailable_all_month",
	"notes", "source", "phone", "email", "rsvp_status", "deleted_at",
}

func participantRow(p *models.Participant) (map[string]any, error) {
	availability := p.Availability
	if availability == nil {
		availability = map[string]bool{}
	}
	data, err := json.Marshal(availability)
	if err != nil {
		return nil, fmt.Errorf("failed to encode availability: %w", err)
	}
	return map[string]any{
		"name":                  p.Name,
		"availability":          string(data),
		"unavailable_all_month": boolInt(p.UnavailableAllMonth),
		"notes":                 p.Notes,
		"source":                p.Source,
		"phone":                 p.Phone,
		"email":                 p.Email,
		"rsvp_status":           string(p.RSVPStatus),
		"deleted_at":            nullableMillis(p.DeletedAt),
	}, nil
}

func scanParticipant(row rowScanner) (eventID string, p models.Participant, err error) {
	var (
		availability string
		allMonth     int
		rsvp         string
		deletedAt    sql.NullInt64
	)
	err = row.Scan(&p.ID, &eventID, &p.Name, &availability, &allMonth,
		&p.Notes, &p.Source, &p.Phone, &p.Email, &rsvp, &deletedAt)
	if err != nil {
		return "", p, err
	}
	if err := json.Unmarshal([]byte(availability), &p.Availability); err != nil {
		return "", p, fmt.Errorf("failed to decode availability: %w", err)
	}
	p.UnavailableAllMonth = allMonth == 1
	p.RSVPStatus = models.RSVPStatus(rsvp)
	p.DeletedAt = fromNullMillis(deletedAt)
	return eventID, p, nil
}

// participantsFor loads the participants of several events, grouped by event.
func (s *SQLiteStore) participantsFor(ctx context.Context, eventIDs []string) (map[string][]models.Participant, error) {
	rows, err := s.query(ctx, builder.Select(participantColumns...).
		From("participants").
		Where(sq.Eq{"event_id": eventIDs}).
		OrderBy("event_id", "position", "rowid"))
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	byEvent := make(map[string][]models.Participant)
	for rows.Next() {
		eventID, p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		byEvent[eventID] = append(byEvent[eventID], p)
	}
	return byEvent, rows.Err()
}

func (s *SQLiteStore) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	byEvent, err := s.participantsFor(ctx, []string{eventID})
	if err != nil {
		return nil, err
	}
	if byEvent[eventID] == nil {
		return []models.Participant{}, nil
	}
	return byEvent[eventID], nil
}

func (s *SQLiteStore) ParticipantEvent(ctx context.Context, participantID string) (string, error) {
	row, err := s.queryRow(ctx, builder.Select("event_id").From("participants").Where(sq.Eq{"id": participantID}))
	if err != nil {
		return "", err
	}
	var eventID string
	if err := row.Scan(&eventID); errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound)
	} else if err != nil {
		return "", fmt.Errorf("failed to get participant: %w", err)
	}
	return eventID, nil
}

// CreateParticipant appends p to the end of the event's participant list.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, eventID string, p *models.Participant) error {
	row, err := participantRow(p)
	if err != nil {
		return err
	}
	row["id"] = p.ID
	row["event_id"] = eventID
	row["position"] = sq.Expr("(SELECT COALESCE(MAX(position), -1) + 1 FROM participants WHERE event_id = ?)", eventID)

	if _, err := s.exec(ctx, builder.Insert("participants").SetMap(row)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("participant %s: %w", p.ID, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateParticipant(ctx context.Context, eventID string, p *models.Participant) error {
	row, err := participantRow(p)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, builder.Update("participants").
		SetMap(row).
		Where(sq.Eq{"id": p.ID, "event_id": eventID}))
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return requireAffected(res, "participant", p.ID)
}

func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) error {
	res, err := s.exec(ctx, builder.Delete("participants").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return requireAffected(res, "participant", id)
}
