// Package calendar holds the month geometry and date-key helpers shared by
// the aggregator, the recurring generator and the exporters.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the canonical availability key layout.
const DateLayout = "2006-01-02"

// DaysInMonth returns the number of days in month (1-12) of year.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth returns the weekday of the 1st, Sunday=0.
func FirstWeekdayOfMonth(year, month int) int {
	return int(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// FormatDate renders the canonical "YYYY-MM-DD" key.
func FormatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// FormatTime renders t as a canonical date key, ignoring its clock.
func FormatTime(t time.Time) string {
	return FormatDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate splits a canonical key back into its parts.
func ParseDate(s string) (year, month, day int, err error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.Year(), int(t.Month()), t.Day(), nil
}

// MonthName returns the English month name, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()
}

// MonthKey renders the "YYYY-MM" watermark key.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// DateRange lists every canonical key from start to end inclusive.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}

	var dates []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}

// GenerateID returns "<unix-millis>-<9 random chars>".
func GenerateID() string {
	return GenerateIDAt(time.Now())
}

// GenerateIDAt is GenerateID with an explicit clock.
func GenerateIDAt(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
