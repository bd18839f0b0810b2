package models

import (
	"fmt"
	"strings"
	"time"
)

// GroupTemplate is a reusable participant list.
type GroupTemplate struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ParticipantNames []string  `json:"participantNames"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (t GroupTemplate) GetID() string { return t.ID }

func (t GroupTemplate) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", ErrValidation)
	}
	return nil
}
