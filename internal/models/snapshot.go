package models

import (
	"fmt"
	"time"
)

// EventSnapshot is an immutable copy of an Event taken at SavedAt.
type EventSnapshot struct {
	ID      string    `json:"id"`
	EventID string    `json:"eventId"`
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
	Event   Event     `json:"event"`
}

func (s EventSnapshot) GetID() string { return s.ID }

func (s EventSnapshot) Validate() error {
	if s.ID == "" || s.EventID == "" {
		return fmt.Errorf("%w: snapshot requires an id and an event id", ErrValidation)
	}
	return nil
}
