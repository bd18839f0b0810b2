package models

import (
	"fmt"
	"strings"
	"time"
)

// RecurrencePattern controls how often a recurring template fires.
type RecurrencePattern string

const (
	PatternWeekly   RecurrencePattern = "weekly"
	PatternBiweekly RecurrencePattern = "biweekly"
	PatternMonthly  RecurrencePattern = "monthly"
)

// RecurringEventTemplate generates at most one Event per calendar month.
type RecurringEventTemplate struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Pattern RecurrencePattern `json:"pattern"`

	// DayOfWeek is 0-6 with Sunday as 0.
	DayOfWeek int `json:"dayOfWeek"`

	// WeekOfMonth is 1-5 for monthly patterns. 5 means the last such weekday.
	WeekOfMonth int `json:"weekOfMonth,omitempty"`

	ParticipantNames []string  `json:"participantNames"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"createdAt"`

	// LastGeneratedMonth is the "YYYY-MM" watermark of the last generated event.
	LastGeneratedMonth string `json:"lastGeneratedMonth,omitempty"`

	TeamLeader      string      `json:"teamLeader,omitempty"`
	TeamLeaderPhone string      `json:"teamLeaderPhone,omitempty"`
	MeetingType     MeetingType `json:"meetingType,omitempty"`
	VenueName       string      `json:"venueName,omitempty"`
	VenueAddress    string      `json:"venueAddress,omitempty"`
	MeetingLink     string      `json:"meetingLink,omitempty"`
	MeetingNotes    string      `json:"meetingNotes,omitempty"`
}

func (t RecurringEventTemplate) GetID() string { return t.ID }

func (t RecurringEventTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name is required", ErrValidation)
	}
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return fmt.Errorf("%w: day of week %d out of range", ErrValidation, t.DayOfWeek)
	}
	switch t.Pattern {
	case PatternWeekly, PatternBiweekly:
	case PatternMonthly:
		if t.WeekOfMonth < 1 || t.WeekOfMonth > 5 {
			return fmt.Errorf("%w: week of month %d out of range", ErrValidation, t.WeekOfMonth)
		}
	default:
		return fmt.Errorf("%w: unknown pattern %q", ErrValidation, t.Pattern)
	}
	return nil
}
