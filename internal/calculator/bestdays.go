package calculator

import (
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

// BestDay is a candidate date with its share of active participants.
type BestDay struct {
	Date           string
	AvailableCount int
	Percentage     float64
}

// GetBestDays returns every day of a flexible event's month that ties for the
// highest available count, in ascending day order.
//
// Returns nil for fixed events and when nobody has marked any day available.
func GetBestDays(event models.Event) []BestDay {
	if event.IsFixed() {
		return nil
	}

	active := len(event.ActiveParticipants())
	days := calendar.DaysInMonth(event.Year, event.Month)

	candidates := make([]BestDay, 0, days)
	maxCount := 0
	for day := 1; day <= days; day++ {
		avail := GetDayAvailability(event, event.Year, event.Month, day)
		percentage := 0.0
		if active > 0 {
			percentage = float64(avail.AvailableCount) / float64(active) * 100
		}
		candidates = append(candidates, BestDay{
			Date:           avail.Date,
			AvailableCount: avail.AvailableCount,
			Percentage:     percentage,
		})
		if avail.AvailableCount > maxCount {
			maxCount = avail.AvailableCount
		}
	}

	if maxCount == 0 {
		return nil
	}

	var best []BestDay
	for _, c := range candidates {
		if c.AvailableCount == maxCount {
			best = append(best, c)
		}
	}
	return best
}

// RSVPSummary counts answers of active participants to a fixed event.
type RSVPSummary struct {
	Attending    int
	NotAttending int
	NoResponse   int
}

func GetRSVPSummary(event models.Event) RSVPSummary {
	var s RSVPSummary
	for _, p := range event.ActiveParticipants() {
		switch p.RSVP() {
		case models.RSVPAttending:
			s.Attending++
		case models.RSVPNotAttending:
			s.NotAttending++
		default:
			s.NoResponse++
		}
	}
	return s
}

// MonthGrid lays the month out as Sunday-first week rows. Cells outside the
// month are 0.
func MonthGrid(year, month int) [][7]int {
	offset := calendar.FirstWeekdayOfMonth(year, month)
	days := calendar.DaysInMonth(year, month)

	var grid [][7]int
	var week [7]int
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			grid = append(grid, week)
			week = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		grid = append(grid, week)
	}
	return grid
}
