// Package recurring turns recurring templates into monthly flexible events.
// Every function takes the reference date explicitly.
package recurring

import (
	"fmt"
	"time"

	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/teambition/rrule-go"
)

var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

var (
	dayNames  = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	weekNames = [5]string{"First", "Second", "Third", "Fourth", "Last"}
)

// Rule builds the recurrence rule of t. Biweekly rules count from the week
// the template was created in.
func Rule(t models.RecurringEventTemplate, monthStart time.Time) (*rrule.RRule, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	opt := rrule.ROption{Dtstart: monthStart}
	wd := weekdays[t.DayOfWeek]
	switch t.Pattern {
	case models.PatternWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{wd}
	case models.PatternBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
		opt.Byweekday = []rrule.Weekday{wd}
		if !t.CreatedAt.IsZero() && t.CreatedAt.Before(monthStart) {
			created := t.CreatedAt.UTC()
			opt.Dtstart = time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
		}
	case models.PatternMonthly:
		opt.Freq = rrule.MONTHLY
		nth := t.WeekOfMonth
		if nth == 5 {
			nth = -1
		}
		opt.Byweekday = []rrule.Weekday{wd.Nth(nth)}
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence for %s: %w", t.ID, err)
	}
	return r, nil
}

// Occurrences returns every date of t in the given month.
func Occurrences(t models.RecurringEventTemplate, year, month int) ([]time.Time, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month), calendar.DaysInMonth(year, month), 0, 0, 0, 0, time.UTC)

	r, err := Rule(t, start)
	if err != nil {
		return nil, err
	}
	return r.Between(start, end, true), nil
}

// NextOccurrence returns the first date of t in the month of ref.
func NextOccurrence(t models.RecurringEventTemplate, ref time.Time) (time.Time, bool) {
	dates, err := Occurrences(t, ref.Year(), int(ref.Month()))
	if err != nil || len(dates) == 0 {
		return time.Time{}, false
	}
	return dates[0], true
}

// ShouldGenerateForMonth reports whether t is active, has not generated an
// event for the month yet, and occurs in it.
func ShouldGenerateForMonth(t models.RecurringEventTemplate, year, month int) bool {
	if !t.Active || t.LastGeneratedMonth == calendar.MonthKey(year, month) {
		return false
	}
	dates, err := Occurrences(t, year, month)
	return err == nil && len(dates) > 0
}

// GenerateEvent builds the flexible event for one month. Participants start
// with no answers.
func GenerateEvent(t models.RecurringEventTemplate, year, month int, now time.Time) models.Event {
	participants := make([]models.Participant, 0, len(t.ParticipantNames))
	for _, name := range t.ParticipantNames {
		participants = append(participants, models.Participant{
			ID:           calendar.GenerateIDAt(now),
			Name:         name,
			Availability: map[string]bool{},
		})
	}

	now = now.UTC()
	return models.Event{
		ID:              calendar.GenerateIDAt(now),
		Name:            t.Name,
		EventType:       models.EventTypeFlexible,
		Month:           month,
		Year:            year,
		Participants:    participants,
		CreatedAt:       now,
		UpdatedAt:       now,
		TeamLeader:      t.TeamLeader,
		TeamLeaderPhone: t.TeamLeaderPhone,
		MeetingType:     t.MeetingType,
		VenueName:       t.VenueName,
		VenueAddress:    t.VenueAddress,
		MeetingLink:     t.MeetingLink,
		MeetingNotes:    t.MeetingNotes,
	}
}

// Describe renders the pattern for people, e.g. "First Friday of each month".
func Describe(t models.RecurringEventTemplate) string {
	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return string(t.Pattern)
	}
	day := dayNames[t.DayOfWeek]
	switch t.Pattern {
	case models.PatternWeekly:
		return "Every " + day
	case models.PatternBiweekly:
		return "Every other " + day
	case models.PatternMonthly:
		if t.WeekOfMonth >= 1 && t.WeekOfMonth <= 5 {
			return fmt.Sprintf("%s %s of each month", weekNames[t.WeekOfMonth-1], day)
		}
	}
	return string(t.Pattern)
}
