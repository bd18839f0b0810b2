package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mmynk/gathersync/internal/models"
)

// SavePushToken registers a device token. Re-registering moves the token to
// the new user and device.
func (s *SQLiteStore) SavePushToken(ctx context.Context, t *models.PushToken) error {
	_, err := s.exec(ctx, builder.Insert("push_tokens").
		Columns("token", "user_id", "device_id", "platform", "created_at").
		Values(t.Token, t.UserID, t.DeviceID, t.Platform, toMillis(t.CreatedAt)).
		Suffix("ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id, device_id = excluded.device_id, platform = excluded.platform"))
	if err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}
	return nil
}

// DeletePushToken removes a token. Unknown tokens are ignored.
func (s *SQLiteStore) DeletePushToken(ctx context.Context, userID, token string) error {
	if _, err := s.exec(ctx, builder.Delete("push_tokens").Where(sq.Eq{"token": token, "user_id": userID})); err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error) {
	rows, err := s.query(ctx, builder.Select("token", "user_id", "device_id", "platform", "created_at").
		From("push_tokens").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.PushToken
	for rows.Next() {
		var (
			t         models.PushToken
			createdAt int64
		)
		if err := rows.Scan(&t.Token, &t.UserID, &t.DeviceID, &t.Platform, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		t.CreatedAt = fromMillis(createdAt)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
