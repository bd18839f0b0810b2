package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/storage"
)

func (s *SQLiteStore) ListSnapshots(ctx context.Context, ownerID string) ([]models.EventSnapshot, error) {
	rows, err := s.query(ctx, builder.Select("id", "event_id", "name", "saved_at", "event_data").
		From("snapshots").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("saved_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []models.EventSnapshot{}
	for rows.Next() {
		var (
			snap    models.EventSnapshot
			savedAt int64
			data    string
		)
		if err := rows.Scan(&snap.ID, &snap.EventID, &snap.Name, &savedAt, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &snap.Event); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %s: %w", snap.ID, err)
		}
		snap.SavedAt = fromMillis(savedAt)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func (s *SQLiteStore) CreateSnapshot(ctx context.Context, ownerID string, snap *models.EventSnapshot) error {
	data, err := json.Marshal(snap.Event)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.exec(ctx, builder.Insert("snapshots").
		Columns("id", "owner_id", "event_id", "name", "saved_at", "event_data").
		Values(snap.ID, ownerID, snap.EventID, snap.Name, toMillis(snap.SavedAt), string(data)))
	if isUniqueViolation(err) {
		return fmt.Errorf("snapshot %s: %w", snap.ID, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, ownerID, id string) error {
	res, err := s.exec(ctx, builder.Delete("snapshots").Where(sq.Eq{"id": id, "owner_id": ownerID}))
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return requireAffected(res, "snapshot", id)
}
