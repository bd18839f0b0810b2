package models

import (
	"fmt"
	"strings"
	"time"
)

// RSVPStatus is the answer of a participant to a fixed event.
type RSVPStatus string

const (
	RSVPAttending    RSVPStatus = "attending"
	RSVPNotAttending RSVPStatus = "not-attending"
	RSVPNoResponse   RSVPStatus = "no-response"
)

// Participant is a person invited to exactly one event.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Availability maps "YYYY-MM-DD" to true (available) or false (unavailable).
	// A missing key means the participant has not answered for that day.
	Availability map[string]bool `json:"availability"`

	// UnavailableAllMonth overrides Availability for every day.
	UnavailableAllMonth bool `json:"unavailableAllMonth,omitempty"`

	Notes  string `json:"notes,omitempty"`
	Source string `json:"source,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`

	// RSVPStatus only matters for fixed events. Empty means no-response.
	RSVPStatus RSVPStatus `json:"rsvpStatus,omitempty"`

	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (p Participant) GetID() string { return p.ID }

// RSVP returns the participant's answer with the empty value normalized.
func (p Participant) RSVP() RSVPStatus {
	if p.RSVPStatus == "" {
		return RSVPNoResponse
	}
	return p.RSVPStatus
}

func (p Participant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: participant id is required", ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: participant name is required", ErrValidation)
	}
	switch p.RSVPStatus {
	case "", RSVPAttending, RSVPNotAttending, RSVPNoResponse:
	default:
		return fmt.Errorf("%w: unknown rsvp status %q", ErrValidation, p.RSVPStatus)
	}
	return nil
}
