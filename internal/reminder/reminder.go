// Package reminder pushes "your event is coming up" notifications to event
// owners on a cron schedule.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/gathersync/internal/calculator"
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/notify"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/logging"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the check hourly.
const DefaultSchedule = "@hourly"

// Store is the part of storage.Store the scheduler needs.
type Store interface {
	ListPendingReminders(ctx context.Context) ([]storage.PendingReminder, error)
	MarkReminderScheduled(ctx context.Context, eventID string) error
}

// Notifier delivers to every device of a user.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, payload notify.Payload)
}

// Scheduler checks pending reminders on a cron schedule.
type Scheduler struct {
	store    Store
	notifier Notifier
	schedule string
	logger   *slog.Logger
	now      func() time.Time
	cron     *cron.Cron
}

func NewScheduler(store Store, notifier Notifier, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the job and starts the cron runner. Overlapping runs are
// skipped.
func (s *Scheduler) Start() error {
	cl := logging.CronLogger(s.logger)
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("Reminder run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Reminder scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the runner and waits for a running check to finish or ctx to
// end.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce sends every reminder that is due and returns how many were sent.
// Reminders for past events are retired without a notification.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	pending, err := s.store.ListPendingReminders(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sent := 0
	for _, p := range pending {
		date, ok := TargetDate(p.Event)
		if !ok || p.Event.ReminderDaysBefore == nil {
			continue
		}

		daysLeft := int(date.Sub(today).Hours() / 24)
		switch {
		case daysLeft < 0:
			s.logger.Debug("Retiring reminder for past event", "event_id", p.Event.ID)
		case daysLeft <= *p.Event.ReminderDaysBefore:
			s.notifier.NotifyUser(ctx, p.OwnerID, payload(p.Event, date, daysLeft))
			sent++
		default:
			continue
		}

		if err := s.store.MarkReminderScheduled(ctx, p.Event.ID); err != nil {
			return sent, fmt.Errorf("failed to retire reminder for %s: %w", p.Event.ID, err)
		}
	}
	return sent, nil
}

// TargetDate is the day an event happens: the finalized date, the fixed
// date, or the first best day of a flexible event.
func TargetDate(event models.Event) (time.Time, bool) {
	var date string
	switch {
	case event.Finalized && event.FinalizedDate != "":
		date = event.FinalizedDate
	case event.IsFixed():
		date = event.FixedDate
	default:
		best := calculator.GetBestDays(event)
		if len(best) == 0 {
			return time.Time{}, false
		}
		date = best[0].Date
	}

	y, m, d, err := calendar.ParseDate(date)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}

func payload(event models.Event, date time.Time, daysLeft int) notify.Payload {
	when := "today"
	switch daysLeft {
	case 0:
	case 1:
		when = "tomorrow"
	default:
		when = fmt.Sprintf("in %d days", daysLeft)
	}
	return notify.Payload{
		Title: event.Name,
		Body:  fmt.Sprintf("%s is %s (%s)", event.Name, when, date.Format("Mon, Jan 2")),
		Data:  map[string]string{"eventId": event.ID, "type": "reminder"},
	}
}
