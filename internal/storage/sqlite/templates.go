package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/storage"
)

func (s *SQLiteStore) ListTemplates(ctx context.Context, ownerID string) ([]models.GroupTemplate, error) {
	rows, err := s.query(ctx, builder.Select("id", "name", "participant_names", "created_at").
		From("templates").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []models.GroupTemplate{}
	for rows.Next() {
		var (
			t         models.GroupTemplate
			names     string
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.Name, &names, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		if err := json.Unmarshal([]byte(names), &t.ParticipantNames); err != nil {
			return nil, fmt.Errorf("failed to decode template %s: %w", t.ID, err)
		}
		t.CreatedAt = fromMillis(createdAt)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (s *SQLiteStore) CreateTemplate(ctx context.Context, ownerID string, t *models.GroupTemplate) error {
	names, err := encodeNames(t.ParticipantNames)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, builder.Insert("templates").
		Columns("id", "owner_id", "name", "participant_names", "created_at").
		Values(t.ID, ownerID, t.Name, names, toMillis(t.CreatedAt)))
	if isUniqueViolation(err) {
		return fmt.Errorf("template %s: %w", t.ID, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTemplate(ctx context.Context, ownerID string, t *models.GroupTemplate) error {
	names, err := encodeNames(t.ParticipantNames)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, builder.Update("templates").
		Set("name", t.Name).
		Set("participant_names", names).
		Where(sq.Eq{"id": t.ID, "owner_id": ownerID}))
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return requireAffected(res, "template", t.ID)
}

func (s *SQLiteStore) DeleteTemplate(ctx context.Context, ownerID, id string) error {
	res, err := s.exec(ctx, builder.Delete("templates").Where(sq.Eq{"id": id, "owner_id": ownerID}))
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return requireAffected(res, "template", id)
}

func encodeNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("failed to encode participant names: %w", err)
	}
	return string(data), nil
}
