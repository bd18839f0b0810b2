package calculator

import (
	"testing"

	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

func TestGetParticipantStatus(t *testing.T) {
	full := make(map[string]bool)
	for day := 1; day <= 28; day++ {
		full[calendar.FormatDate(2026, 2, day)] = day%2 == 0
	}

	stale := map[string]bool{}
	for day := 1; day <= 27; day++ {
		stale[calendar.FormatDate(2026, 2, day)] = true
	}
	stale["2026-01-31"] = true

	tests := []struct {
		name string
		p    models.Participant
		want ResponseStatus
	}{
		{name: "nothing marked", p: models.Participant{}, want: ResponseNoResponse},
		{name: "blanket decline counts as a response", p: models.Participant{UnavailableAllMonth: true}, want: ResponseResponded},
		{name: "some days marked", p: models.Participant{Availability: map[string]bool{"2026-02-01": false}}, want: ResponsePartial},
		{name: "every day marked", p: models.Participant{Availability: full}, want: ResponseResponded},
		{name: "stale keys from another month still count", p: models.Participant{Availability: stale}, want: ResponseResponded},
	}

	event := feb2026()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetParticipantStatus(tt.p, event); got != tt.want {
				t.Errorf("GetParticipantStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
