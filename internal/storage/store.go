// Package storage provides abstractions for the server's persistent data.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/gathersync/internal/auth"
	"github.com/mmynk/gathersync/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a record whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Store is the server-side persistence of the event graph. Every record is
// owned by one user account.
type Store interface {
	auth.UserStorage

	// ListEvents returns the owner's live events with their participants.
	ListEvents(ctx context.Context, ownerID string) ([]models.Event, error)
	// GetEvent returns one event with its participants.
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	// EventOwner returns the owning user id of an event.
	EventOwner(ctx context.Context, id string) (string, error)
	// CreateEvent stores the event row. Participants are ignored.
	CreateEvent(ctx context.Context, ownerID string, event *models.Event) error
	// UpdateEvent overwrites the event row. Participants are ignored.
	UpdateEvent(ctx context.Context, event *models.Event) error
	// DeleteEvent removes the event and all of its participants.
	DeleteEvent(ctx context.Context, id string) error

	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
	// ParticipantEvent returns the id of the event a participant belongs to.
	ParticipantEvent(ctx context.Context, participantID string) (string, error)
	CreateParticipant(ctx context.Context, eventID string, p *models.Participant) error
	UpdateParticipant(ctx context.Context, eventID string, p *models.Participant) error
	DeleteParticipant(ctx context.Context, id string) error

	ListSnapshots(ctx context.Context, ownerID string) ([]models.EventSnapshot, error)
	CreateSnapshot(ctx context.Context, ownerID string, s *models.EventSnapshot) error
	DeleteSnapshot(ctx context.Context, ownerID, id string) error

	ListTemplates(ctx context.Context, ownerID string) ([]models.GroupTemplate, error)
	CreateTemplate(ctx context.Context, ownerID string, t *models.GroupTemplate) error
	UpdateTemplate(ctx context.Context, ownerID string, t *models.GroupTemplate) error
	DeleteTemplate(ctx context.Context, ownerID, id string) error

	SavePushToken(ctx context.Context, token *models.PushToken) error
	DeletePushToken(ctx context.Context, userID, token string) error
	ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error)

	// ListPendingReminders returns live events with a reminder configured
	// that has not been sent yet, together with their owners.
	ListPendingReminders(ctx context.Context) ([]PendingReminder, error)
	MarkReminderScheduled(ctx context.Context, eventID string) error

	// Close releases any resources held by the store.
	Close() error
}

// PendingReminder pairs an event with the account to notify.
type PendingReminder struct {
	OwnerID string
	Event   models.Event
}
