package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/recurring"
)

var weekdays = map[string]int{
	"sun": 0, "sunday": 0,
	"mon": 1, "monday": 1,
	"tue": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
}

func parseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdays[s]; ok {
		return d, nil
	}
	d, err := strconv.Atoi(s)
	if err != nil || d < 0 || d > 6 {
		return 0, fmt.Errorf("%w: %q is not a weekday", ErrUsage, s)
	}
	return d, nil
}

func (a *App) recurringCmd(ctx context.Context, args []string) error {
	return a.dispatch(ctx, "recurring", args, subcommands{
		"add": func(ctx context.Context, args []string) error {
			fs := a.flags("recurring add")
			name := fs.String("name", "", "Event name")
			pattern := fs.String("pattern", string(models.PatternMonthly), "weekly, biweekly or monthly")
			day := fs.String("day", "friday", "Day of week (name or 0-6, Sunday=0)")
			week := fs.Int("week", 1, "Week of month for monthly patterns (1-4, 5 for last)")
			participants := fs.String("participants", "", "Comma separated participant names")
			meeting := fs.String("meeting", "", "Meeting type (in-person, virtual, hybrid)")
			venue := fs.String("venue", "", "Venue name")
			address := fs.String("address", "", "Venue address")
			link := fs.String("link", "", "Meeting link")
			leader := fs.String("leader", "", "Team leader")
			if err := fs.Parse(args); err != nil {
				return err
			}
			dow, err := parseWeekday(*day)
			if err != nil {
				return err
			}

			t := models.RecurringEventTemplate{
				Name:             strings.TrimSpace(*name),
				Pattern:          models.RecurrencePattern(*pattern),
				DayOfWeek:        dow,
				ParticipantNames: splitList(*participants),
				Active:           true,
				MeetingType:      models.MeetingType(*meeting),
				VenueName:        *venue,
				VenueAddress:     *address,
				MeetingLink:      *link,
				TeamLeader:       *leader,
			}
			if t.Pattern == models.PatternMonthly {
				t.WeekOfMonth = *week
			}
			t, err = a.recurring.Save(ctx, t, a.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved recurring template %s: %s\n", t.ID, recurring.Describe(t))
			return nil
		},
		"list": func(ctx context.Context, args []string) error {
			if err := a.flags("recurring list").Parse(args); err != nil {
				return err
			}
			templates, err := a.recurring.Templates(ctx)
			if err != nil {
				return err
			}
			now := a.now()
			for _, t := range templates {
				line := fmt.Sprintf("%s  %s: %s", t.ID, t.Name, recurring.Describe(t))
				if !t.Active {
					line += " (paused)"
				} else if next, ok := recurring.NextOccurrence(t, now); ok {
					line += ", first this month " + calendar.FormatTime(next)
				}
				if t.LastGeneratedMonth != "" {
					line += ", last generated " + t.LastGeneratedMonth
				}
				fmt.Fprintln(a.out, line)
			}
			if len(templates) == 0 {
				fmt.Fprintln(a.out, "No recurring templates")
			}
			return nil
		},
		"pause":  func(ctx context.Context, args []string) error { return a.setActive(ctx, "recurring pause", args, false) },
		"resume": func(ctx context.Context, args []string) error { return a.setActive(ctx, "recurring resume", args, true) },
		"delete": func(ctx context.Context, args []string) error {
			fs := a.flags("recurring delete")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if fs.NArg() != 1 {
				return fmt.Errorf("%w: recurring delete ID", ErrUsage)
			}
			if err := a.recurring.Delete(ctx, fs.Arg(0)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted recurring template %s\n", fs.Arg(0))
			return nil
		},
	})
}

func (a *App) setActive(ctx context.Context, name string, args []string, active bool) error {
	fs := a.flags(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: %s ID", ErrUsage, name)
	}

	templates, err := a.recurring.Templates(ctx)
	if err != nil {
		return err
	}
	for _, t := range templates {
		if t.ID != fs.Arg(0) {
			continue
		}
		t.Active = active
		if _, err := a.recurring.Save(ctx, t, a.now()); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: active=%t\n", t.Name, active)
		return nil
	}
	return fmt.Errorf("recurring template %s not found", fs.Arg(0))
}

func (a *App) generate(ctx context.Context, args []string) error {
	fs := a.flags("generate")
	month := fs.String("month", "", "Month to generate (YYYY-MM, default: current month)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ref := a.now()
	if *month != "" {
		t, err := time.ParseInLocation("2006-01", *month, ref.Location())
		if err != nil {
			return fmt.Errorf("%w: -month must be YYYY-MM", ErrUsage)
		}
		ref = t
	}

	events, err := a.recurring.Run(ctx, ref)
	for _, e := range events {
		fmt.Fprintf(a.out, "Generated %s (%s)\n", e.Name, e.ID)
	}
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(a.out, "Nothing to generate for %s\n", calendar.MonthKey(ref.Year(), int(ref.Month())))
	}
	return nil
}
