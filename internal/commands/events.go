package commands

import (
	"context"
	"flag"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmynk/gathersync/internal/calculator"
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
)

// eventFlag registers -event. The first positional argument is accepted too.
func eventFlag(fs *flag.FlagSet) func() string {
	id := fs.String("event", "", "Event ID")
	return func() string {
		if *id == "" && fs.NArg() > 0 {
			return fs.Arg(0)
		}
		return *id
	}
}

func (a *App) loadEvent(ctx context.Context, id string) (*models.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: an event ID is required", ErrUsage)
	}
	return a.store.Events.GetByID(ctx, id)
}

func (a *App) listEvents(ctx context.Context, args []string) error {
	fs := a.flags("events")
	archived := fs.Bool("archived", false, "Include archived events")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := a.store.Events.GetAll(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Year != events[j].Year {
			return events[i].Year < events[j].Year
		}
		if events[i].Month != events[j].Month {
			return events[i].Month < events[j].Month
		}
		return events[i].Name < events[j].Name
	})

	shown := 0
	for _, e := range events {
		if e.Archived && !*archived {
			continue
		}
		flags := ""
		if e.Finalized {
			flags += " finalized"
		}
		if e.Archived {
			flags += " archived"
		}
		fmt.Fprintf(a.out, "%s  %s  %-8s  %-30s %d participants%s\n",
			e.ID, calendar.MonthKey(e.Year, e.Month), eventType(e), e.Name, len(e.ActiveParticipants()), flags)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "No events")
	}
	return nil
}

func (a *App) createEvent(ctx context.Context, args []string) error {
	now := a.now()
	fs := a.flags("create")
	name := fs.String("name", "", "Event name")
	month := fs.Int("month", int(now.Month()), "Month (1-12)")
	year := fs.Int("year", now.Year(), "Year")
	date := fs.String("date", "", "Fixed date (YYYY-MM-DD); makes the event fixed")
	clock := fs.String("time", "", "Start time of a fixed event (HH:MM)")
	template := fs.String("template", "", "Group template ID to copy participants from")
	participants := fs.String("participants", "", "Comma separated participant names")
	reminder := fs.Int("reminder", -1, "Remind this many days before the date (-1 for none)")
	meeting := fs.String("meeting", "", "Meeting type (in-person, virtual, hybrid)")
	venue := fs.String("venue", "", "Venue name")
	address := fs.String("address", "", "Venue address")
	link := fs.String("link", "", "Meeting link")
	leader := fs.String("leader", "", "Team leader")
	notes := fs.String("notes", "", "Meeting notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	event := models.Event{
		ID:           calendar.GenerateIDAt(now),
		Name:         strings.TrimSpace(*name),
		EventType:    models.EventTypeFlexible,
		Month:        *month,
		Year:         *year,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
		MeetingType:  models.MeetingType(*meeting),
		VenueName:    *venue,
		VenueAddress: *address,
		MeetingLink:  *link,
		TeamLeader:   *leader,
		MeetingNotes: *notes,
	}
	if *date != "" {
		y, m, _, err := calendar.ParseDate(*date)
		if err != nil {
			return err
		}
		event.EventType = models.EventTypeFixed
		event.FixedDate = *date
		event.FixedTime = *clock
		event.Year, event.Month = y, m
	}
	if *reminder >= 0 {
		event.ReminderDaysBefore = models.Ptr(*reminder)
	}

	names := splitList(*participants)
	if *template != "" {
		t, err := a.store.Templates.GetByID(ctx, *template)
		if err != nil {
			return err
		}
		names = slices.Concat(t.ParticipantNames, names)
	}
	for _, n := range names {
		event.Participants = append(event.Participants, newParticipant(n, now))
	}

	outcome, err := a.store.Events.Add(ctx, event)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created event %s (%s)\n", event.ID, event.Name)
	a.report("Event", outcome)
	return nil
}

func (a *App) showEvent(ctx context.Context, args []string) error {
	fs := a.flags("show")
	id := eventFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (%s) %s %d\n", event.Name, eventType(*event), calendar.MonthName(event.Month), event.Year)
	fmt.Fprintf(a.out, "ID: %s\n", event.ID)
	if event.IsFixed() {
		fmt.Fprintf(a.out, "Date: %s %s\n", event.FixedDate, event.FixedTime)
	}
	if event.Finalized {
		fmt.Fprintf(a.out, "Finalized: %s\n", event.FinalizedDate)
	}
	if event.VenueName != "" || event.VenueAddress != "" {
		fmt.Fprintf(a.out, "Venue: %s %s\n", event.VenueName, event.VenueAddress)
	}
	if event.MeetingLink != "" {
		fmt.Fprintf(a.out, "Link: %s\n", event.MeetingLink)
	}
	fmt.Fprintf(a.out, "Participants: %d\n\n", len(event.ActiveParticipants()))

	if event.IsFixed() {
		s := calculator.GetRSVPSummary(*event)
		fmt.Fprintf(a.out, "Attending: %d  Not attending: %d  No response: %d\n", s.Attending, s.NotAttending, s.NoResponse)
		return nil
	}
	a.heatMap(*event)
	return nil
}

// heatMap prints the month grid with the available count of every day. Best
// days are starred.
func (a *App) heatMap(event models.Event) {
	best := make(map[string]bool)
	for _, d := range calculator.GetBestDays(event) {
		best[d.Date] = true
	}

	fmt.Fprintln(a.out, "  Sun    Mon    Tue    Wed    Thu    Fri    Sat")
	for _, week := range calculator.MonthGrid(event.Year, event.Month) {
		var b strings.Builder
		for _, day := range week {
			if day == 0 {
				b.WriteString("       ")
				continue
			}
			avail := calculator.GetDayAvailability(event, event.Year, event.Month, day)
			mark := " "
			if best[avail.Date] {
				mark = "*"
			}
			fmt.Fprintf(&b, " %2d:%-2d%s", day, avail.AvailableCount, mark)
		}
		fmt.Fprintln(a.out, strings.TrimRight(b.String(), " "))
	}
}

func (a *App) best(ctx context.Context, args []string) error {
	fs := a.flags("best")
	id := eventFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}
	if event.IsFixed() {
		fmt.Fprintf(a.out, "Fixed event on %s\n", event.FixedDate)
		return nil
	}

	days := calculator.GetBestDays(*event)
	if len(days) == 0 {
		fmt.Fprintln(a.out, "No availability yet")
		return nil
	}
	for _, d := range days {
		fmt.Fprintf(a.out, "%s  %d available (%.0f%%)\n", d.Date, d.AvailableCount, d.Percentage)
	}
	return nil
}

func (a *App) status(ctx context.Context, args []string) error {
	fs := a.flags("status")
	id := eventFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}

	for _, p := range event.ActiveParticipants() {
		line := fmt.Sprintf("%-24s %-12s", p.Name, calculator.GetParticipantStatus(p, *event))
		if event.IsFixed() {
			line += " rsvp=" + string(p.RSVP())
		}
		fmt.Fprintln(a.out, strings.TrimRight(line, " "))
	}
	return nil
}

func (a *App) mark(ctx context.Context, args []string) error {
	fs := a.flags("mark")
	id := eventFlag(fs)
	name := fs.String("name", "", "Participant name; added when missing")
	available := fs.String("available", "", "Days available, e.g. 3,5,10-12 or 2026-02-03")
	unavailable := fs.String("unavailable", "", "Days unavailable")
	clearDays := fs.String("clear", "", "Days to reset to no response")
	allMonth := fs.Bool("all-month", false, "Mark unavailable for the whole month; -all-month=false undoes it")
	phone := fs.String("phone", "", "Participant phone")
	email := fs.String("email", "", "Participant email")
	notes := fs.String("notes", "", "Participant notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("%w: -name is required", ErrUsage)
	}

	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}
	parts, p := participantByName(event.Participants, *name, a.now())

	// The blanket decline only changes when the flag is given. Setting it
	// drops the day answers it overrides.
	if isSet(fs, "all-month") {
		p.UnavailableAllMonth = *allMonth
		if *allMonth {
			clear(p.Availability)
		}
	}

	setDays := func(spec string, value bool) error {
		dates, err := parseDays(spec, event.Year, event.Month)
		if err != nil {
			return err
		}
		for _, d := range dates {
			p.Availability[d] = value
		}
		return nil
	}
	if err := setDays(*available, true); err != nil {
		return err
	}
	if err := setDays(*unavailable, false); err != nil {
		return err
	}
	cleared, err := parseDays(*clearDays, event.Year, event.Month)
	if err != nil {
		return err
	}
	for _, d := range cleared {
		delete(p.Availability, d)
	}
	if *phone != "" {
		p.Phone = *phone
	}
	if *email != "" {
		p.Email = *email
	}
	if *notes != "" {
		p.Notes = *notes
	}

	_, outcome, err := a.store.Events.Update(ctx, event.ID, models.EventPatch{Participants: parts})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated availability of %s\n", p.Name)
	a.report("Availability", outcome)
	return nil
}

func (a *App) removeParticipant(ctx context.Context, args []string) error {
	fs := a.flags("remove-participant")
	id := eventFlag(fs)
	name := fs.String("name", "", "Participant name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("%w: -name is required", ErrUsage)
	}

	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}
	var target *models.Participant
	for _, p := range event.ActiveParticipants() {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(*name)) {
			target = &p
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%s has no participant named %q", event.Name, *name)
	}
	event.RemoveParticipant(target.ID, a.now())

	_, outcome, err := a.store.Events.Update(ctx, event.ID, models.EventPatch{Participants: event.Participants})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s from %s\n", target.Name, event.Name)
	a.report("Removal", outcome)
	return nil
}

func (a *App) rsvp(ctx context.Context, args []string) error {
	fs := a.flags("rsvp")
	id := eventFlag(fs)
	name := fs.String("name", "", "Participant name; added when missing")
	status := fs.String("status", string(models.RSVPAttending), "attending, not-attending or no-response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("%w: -name is required", ErrUsage)
	}

	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}
	parts, p := participantByName(event.Participants, *name, a.now())
	p.RSVPStatus = models.RSVPStatus(*status)

	_, outcome, err := a.store.Events.Update(ctx, event.ID, models.EventPatch{Participants: parts})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", p.Name, p.RSVPStatus)
	a.report("RSVP", outcome)
	return nil
}

func (a *App) finalize(ctx context.Context, args []string) error {
	fs := a.flags("finalize")
	id := eventFlag(fs)
	date := fs.String("date", "", "Final date (YYYY-MM-DD or day of month); defaults to the first best day")
	undo := fs.Bool("undo", false, "Clear the final date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}

	patch := models.EventPatch{Finalized: models.Ptr(false), FinalizedDate: models.Ptr("")}
	if !*undo {
		final := ""
		if *date != "" {
			dates, err := parseDays(*date, event.Year, event.Month)
			if err != nil {
				return err
			}
			if len(dates) != 1 {
				return fmt.Errorf("%w: -date must name exactly one day", ErrUsage)
			}
			final = dates[0]
		} else if best := calculator.GetBestDays(*event); len(best) > 0 {
			final = best[0].Date
		} else {
			return fmt.Errorf("%s has no available days to pick from", event.Name)
		}
		patch = models.EventPatch{Finalized: models.Ptr(true), FinalizedDate: models.Ptr(final)}
	}

	updated, outcome, err := a.store.Events.Update(ctx, event.ID, patch)
	if err != nil {
		return err
	}
	if updated.Finalized {
		fmt.Fprintf(a.out, "%s finalized for %s\n", updated.Name, updated.FinalizedDate)
	} else {
		fmt.Fprintf(a.out, "%s is no longer finalized\n", updated.Name)
	}
	a.report("Event", outcome)
	return nil
}

func (a *App) archive(ctx context.Context, args []string) error {
	fs := a.flags("archive")
	id := eventFlag(fs)
	undo := fs.Bool("undo", false, "Unarchive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}

	_, outcome, err := a.store.Events.Update(ctx, event.ID, models.EventPatch{Archived: models.Ptr(!*undo)})
	if err != nil {
		return err
	}
	if *undo {
		fmt.Fprintf(a.out, "Unarchived %s\n", event.Name)
	} else {
		fmt.Fprintf(a.out, "Archived %s\n", event.Name)
	}
	a.report("Event", outcome)
	return nil
}

func (a *App) deleteEvent(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	id := eventFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}

	outcome, err := a.store.Events.Delete(ctx, event.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", event.Name)
	a.report("Deletion", outcome)
	return nil
}

// isSet reports whether the named flag was given on the command line.
func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func eventType(e models.Event) string {
	if e.IsFixed() {
		return string(models.EventTypeFixed)
	}
	return string(models.EventTypeFlexible)
}

func newParticipant(name string, now time.Time) models.Participant {
	return models.Participant{
		ID:           calendar.GenerateIDAt(now),
		Name:         strings.TrimSpace(name),
		Availability: map[string]bool{},
	}
}

// participantByName returns parts with the active participant called name,
// appending a new one when none matches, and a pointer into the result.
func participantByName(parts []models.Participant, name string, now time.Time) ([]models.Participant, *models.Participant) {
	name = strings.TrimSpace(name)
	for i := range parts {
		if parts[i].DeletedAt == nil && strings.EqualFold(strings.TrimSpace(parts[i].Name), name) {
			if parts[i].Availability == nil {
				parts[i].Availability = map[string]bool{}
			}
			return parts, &parts[i]
		}
	}
	parts = append(parts, newParticipant(name, now))
	return parts, &parts[len(parts)-1]
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseDays expands a comma separated list of days of the given month into
// canonical dates. Items are a day number, a day range "3-7" or a full
// YYYY-MM-DD date.
func parseDays(spec string, year, month int) ([]string, error) {
	var dates []string
	for _, item := range splitList(spec) {
		if _, _, _, err := calendar.ParseDate(item); err == nil {
			dates = append(dates, item)
			continue
		}

		from, to, isRange := strings.Cut(item, "-")
		start, err := dayOf(from, year, month)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = dayOf(to, year, month); err != nil {
				return nil, err
			}
		}
		r, err := calendar.DateRange(calendar.FormatDate(year, month, start), calendar.FormatDate(year, month, end))
		if err != nil {
			return nil, err
		}
		dates = append(dates, r...)
	}
	return dates, nil
}

func dayOf(s string, year, month int) (int, error) {
	day, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || day < 1 || day > calendar.DaysInMonth(year, month) {
		return 0, fmt.Errorf("%w: %q is not a day of %s %d", ErrUsage, s, calendar.MonthName(month), year)
	}
	return day, nil
}
