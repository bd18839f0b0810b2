package calculator

import (
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

// ResponseStatus is how completely a participant answered for the month.
type ResponseStatus string

const (
	ResponseResponded  ResponseStatus = "responded"
	ResponsePartial    ResponseStatus = "partial"
	ResponseNoResponse ResponseStatus = "no-response"
)

// GetParticipantStatus classifies p's response completeness for event's month.
//
// Every key in the availability map counts, including keys left over from a
// different month.
func GetParticipantStatus(p models.Participant, event models.Event) ResponseStatus {
	if p.UnavailableAllMonth {
		return ResponseResponded
	}

	marked := len(p.Availability)
	switch {
	case marked == 0:
		return ResponseNoResponse
	case marked < calendar.DaysInMonth(event.Year, event.Month):
		return ResponsePartial
	default:
		return ResponseResponded
	}
}
