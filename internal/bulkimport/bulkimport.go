// Package bulkimport reads availability grids exported from spreadsheets.
//
// The header row is a name column followed by day numbers; each data row is
// a participant name followed by one cell per day:
//
//	Name,1,2,3
//	Ann,Y,N,Y
package bulkimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

var ErrNoData = errors.New("no valid participant data found")

// Row is one parsed participant line.
type Row struct {
	Name         string
	Availability map[string]bool
}

// Result holds the parsed rows and any per-row problems that were skipped.
type Result struct {
	Rows   []Row
	Errors []string
}

var yes = map[string]bool{"Y": true, "YES": true, "1": true, "TRUE": true, "X": true}

// Parse reads a comma or tab separated grid for the given month. Header
// cells that are not day numbers of the month are ignored.
func Parse(r io.Reader, year, month int) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}
	text := strings.TrimSpace(string(data))
	firstLine, _, _ := strings.Cut(text, "\n")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if strings.Contains(firstLine, "\t") {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse import: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("need at least a header row and one data row")
	}

	maxDay := calendar.DaysInMonth(year, month)
	type column struct{ index, day int }
	var columns []column
	for i, h := range records[0][1:] {
		day, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil || day < 1 || day > maxDay {
			continue
		}
		columns = append(columns, column{index: i + 1, day: day})
	}
	if len(columns) == 0 {
		return nil, errors.New("no valid day numbers found in header row")
	}

	result := &Result{}
	for i, record := range records[1:] {
		line := i + 2
		if len(record) < 2 {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: not enough columns", line))
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing name", line))
			continue
		}

		availability := make(map[string]bool, len(columns))
		for _, c := range columns {
			value := ""
			if c.index < len(record) {
				value = strings.ToUpper(strings.TrimSpace(record[c.index]))
			}
			availability[calendar.FormatDate(year, month, c.day)] = yes[value]
		}
		result.Rows = append(result.Rows, Row{Name: name, Availability: availability})
	}

	if len(result.Rows) == 0 {
		return result, ErrNoData
	}
	return result, nil
}

// Stats counts what Apply changed.
type Stats struct {
	Updated int
	Added   int
}

// Apply merges rows into event. Rows match active participants by name,
// ignoring case; their answers overwrite the imported days only. Unmatched
// rows become new participants.
func Apply(event *models.Event, rows []Row, now time.Time) Stats {
	var stats Stats
	for _, row := range rows {
		p := findByName(event, row.Name)
		if p == nil {
			event.Participants = append(event.Participants, models.Participant{
				ID:           calendar.GenerateIDAt(now),
				Name:         row.Name,
				Availability: row.Availability,
				Source:       "import",
			})
			stats.Added++
			continue
		}

		if p.Availability == nil {
			p.Availability = make(map[string]bool, len(row.Availability))
		}
		for date, ok := range row.Availability {
			p.Availability[date] = ok
		}
		stats.Updated++
	}
	return stats
}

func findByName(event *models.Event, name string) *models.Participant {
	for i := range event.Participants {
		p := &event.Participants[i]
		if p.DeletedAt == nil && strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p
		}
	}
	return nil
}

// Template returns an example grid for the month.
func Template(year, month int) string {
	days := calendar.DaysInMonth(year, month)
	header := []string{"Name"}
	first := []string{"John"}
	second := []string{"Sarah"}
	for d := 1; d <= days; d++ {
		header = append(header, strconv.Itoa(d))
		first = append(first, "Y")
		if d%2 == 1 {
			second = append(second, "Y")
		} else {
			second = append(second, "N")
		}
	}
	return strings.Join([]string{
		strings.Join(header, ","),
		strings.Join(first, ","),
		strings.Join(second, ","),
	}, "\n")
}
