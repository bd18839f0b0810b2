package calculator

import (
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

// DayStatus is the answer of one participant for one day.
type DayStatus string

const (
	StatusAvailable   DayStatus = "available"
	StatusUnavailable DayStatus = "unavailable"
	StatusNoResponse  DayStatus = "no-response"
)

// ParticipantDay is one row of a day's breakdown.
type ParticipantDay struct {
	ID     string
	Name   string
	Status DayStatus
}

// DayAvailability is the rollup for a single calendar day.
type DayAvailability struct {
	Date             string
	AvailableCount   int
	UnavailableCount int
	NoResponseCount  int
	Participants     []ParticipantDay
}

// GetDayAvailability classifies every active participant of event for the
// given day and tallies the result.
//
// Precedence: UnavailableAllMonth, then an explicit answer for the day, then
// no-response. A missing key is never treated as unavailable.
func GetDayAvailability(event models.Event, year, month, day int) DayAvailability {
	date := calendar.FormatDate(year, month, day)
	result := DayAvailability{Date: date}

	for _, p := range event.ActiveParticipants() {
		status := dayStatus(p, date)
		switch status {
		case StatusAvailable:
			result.AvailableCount++
		case StatusUnavailable:
			result.UnavailableCount++
		default:
			result.NoResponseCount++
		}
		result.Participants = append(result.Participants, ParticipantDay{
			ID:     p.ID,
			Name:   p.Name,
			Status: status,
		})
	}

	return result
}

func dayStatus(p models.Participant, date string) DayStatus {
	if p.UnavailableAllMonth {
		return StatusUnavailable
	}
	available, ok := p.Availability[date]
	if !ok {
		return StatusNoResponse
	}
	if available {
		return StatusAvailable
	}
	return StatusUnavailable
}
