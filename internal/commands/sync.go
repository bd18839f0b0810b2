package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/gathersync/internal/hybrid"
	"github.com/mmynk/gathersync/internal/session"
	"github.com/mmynk/gathersync/pkg/logging"
)

var errSignedOut = errors.New("sign in to sync")

func (a *App) sync(ctx context.Context, args []string) error {
	fs := a.flags("sync")
	daemon := fs.Bool("daemon", false, "Keep running and sync on a schedule")
	schedule := fs.String("schedule", a.schedule, "Cron spec of the daemon")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireCloud(); err != nil {
		return err
	}
	if !*daemon {
		return a.syncOnce(ctx)
	}
	return a.runDaemon(ctx, *schedule)
}

// syncOnce pulls newer cloud events and creates due recurring events.
func (a *App) syncOnce(ctx context.Context) error {
	if !session.IsAuthenticated(ctx, a.session) {
		return errSignedOut
	}

	stats, err := a.store.Pull(ctx)
	if err != nil {
		return err
	}
	generated, err := a.recurring.Run(ctx, a.now())
	if err != nil {
		return err
	}

	a.logger.Info("Sync complete", "added", stats.Added, "updated", stats.Updated, "generated", len(generated))
	fmt.Fprintf(a.out, "Pulled %d new and %d updated events; generated %d recurring events\n",
		stats.Added, stats.Updated, len(generated))
	return nil
}

// runDaemon syncs on schedule until ctx is done. A tick that arrives while a
// sync is still running is folded into one follow-up sync.
func (a *App) runDaemon(ctx context.Context, schedule string) error {
	saver := hybrid.NewCoalescer(a.syncOnce, a.logger)
	cl := logging.CronLogger(a.logger)
	c := cron.New(cron.WithLogger(cl))
	if _, err := c.AddFunc(schedule, func() {
		if err := saver.Request(ctx); err != nil && !errors.Is(err, errSignedOut) {
			a.logger.Warn("Scheduled sync failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}

	if err := saver.Request(ctx); err != nil {
		a.logger.Warn("Initial sync failed", "error", err)
	}

	c.Start()
	a.logger.Info("Sync daemon started", "schedule", schedule)
	<-ctx.Done()
	<-c.Stop().Done()
	a.logger.Info("Sync daemon stopped")
	return nil
}
