// Package ics exports an event's chosen day as an iCalendar file.
package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/mmynk/gathersync/internal/calculator"
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

const productID = "-//GatherSync//Event Calendar//EN"

// ErrNoAvailableDays is returned for flexible events nobody is available for.
var ErrNoAvailableDays = errors.New("no available days found for this event")

// Options tune the export. Zero values use time.Now, UTC and one hour.
type Options struct {
	Now      time.Time
	Location *time.Location
	// Duration applies to events with a start time.
	Duration time.Duration
}

// Export renders event as a single-VEVENT calendar. The date is the
// finalized date, then the fixed date, then the first best day.
func Export(event models.Event, opts Options) (string, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Duration <= 0 {
		opts.Duration = time.Hour
	}

	date, summary, err := chooseDate(event)
	if err != nil {
		return "", err
	}
	y, m, d, err := calendar.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("event %s has a bad date: %w", event.ID, err)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	vevent := cal.AddEvent(uuid.NewString() + "@gathersync.app")
	vevent.SetDtStampTime(opts.Now.UTC())
	vevent.SetSummary(event.Name)
	vevent.SetDescription(summary)
	vevent.SetStatus(ical.ObjectStatusConfirmed)

	start := time.Date(y, time.Month(m), d, 0, 0, 0, 0, opts.Location)
	if hour, minute, ok := parseClock(event.FixedTime); ok && event.IsFixed() {
		start = time.Date(y, time.Month(m), d, hour, minute, 0, 0, opts.Location)
		vevent.SetStartAt(start)
		vevent.SetEndAt(start.Add(opts.Duration))
	} else {
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(start.AddDate(0, 0, 1))
	}

	if loc := location(event); loc != "" {
		vevent.SetLocation(loc)
	}
	if event.MeetingLink != "" {
		vevent.SetURL(event.MeetingLink)
	}

	return cal.Serialize(), nil
}

// FileName is a filesystem-safe name for the exported calendar.
func FileName(event models.Event) string {
	var b strings.Builder
	for _, r := range event.Name {
		if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		b.WriteString("event")
	}
	return b.String() + ".ics"
}

func chooseDate(event models.Event) (date, summary string, err error) {
	active := event.ActiveParticipants()
	names := make([]string, 0, len(active))
	for _, p := range active {
		names = append(names, p.Name)
	}
	roster := "Participants:\n" + strings.Join(names, "\n")

	switch {
	case event.Finalized && event.FinalizedDate != "":
		return event.FinalizedDate, roster, nil
	case event.IsFixed():
		if event.FixedDate == "" {
			return "", "", fmt.Errorf("fixed event %s has no date", event.ID)
		}
		rsvp := calculator.GetRSVPSummary(event)
		return event.FixedDate, fmt.Sprintf("%d attending, %d not attending, %d no response\n\n%s",
			rsvp.Attending, rsvp.NotAttending, rsvp.NoResponse, roster), nil
	}

	best := calculator.GetBestDays(event)
	if len(best) == 0 {
		return "", "", ErrNoAvailableDays
	}
	return best[0].Date, fmt.Sprintf("%d out of %d participants available\n\n%s",
		best[0].AvailableCount, len(active), roster), nil
}

func location(event models.Event) string {
	parts := make([]string, 0, 2)
	for _, s := range []string{event.VenueName, event.VenueAddress} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func parseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}
