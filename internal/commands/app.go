// Package commands implements the gathersync device client subcommands. Each
// subcommand parses its own flag set and works against the hybrid store.
package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/gathersync/internal/backup"
	"github.com/mmynk/gathersync/internal/cloudstore"
	"github.com/mmynk/gathersync/internal/config"
	"github.com/mmynk/gathersync/internal/hybrid"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/kv/rediskv"
	"github.com/mmynk/gathersync/internal/kv/sqlitekv"
	"github.com/mmynk/gathersync/internal/recurring"
	"github.com/mmynk/gathersync/internal/session"
)

// ErrUsage is returned when the arguments do not name a valid command.
var ErrUsage = errors.New("invalid usage")

// Deps are the collaborators of an App. Cloud may be nil for a device that
// never syncs.
type Deps struct {
	KV    kv.Store
	Cloud *cloudstore.Client
	// Session defaults to a session.Store over KV. It must be the provider
	// Cloud was built with.
	Session *session.Store
	Logger  *slog.Logger
	Out     io.Writer
	In      io.Reader
	Now     func() time.Time
	// SyncSchedule is the default cron spec of the sync daemon.
	SyncSchedule string
}

// App holds everything a subcommand needs.
type App struct {
	store     *hybrid.Store
	session   *session.Store
	cloud     *cloudstore.Client
	backups   *backup.Manager
	recurring *recurring.Generator
	logger    *slog.Logger
	out       io.Writer
	in        io.Reader
	now       func() time.Time
	schedule  string

	// password reads a secret from the terminal.
	password func(prompt string) (string, error)
	lines    *bufio.Reader
	closers  []func() error
}

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

func New(d Deps) *App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.SyncSchedule == "" {
		d.SyncSchedule = "@every 5m"
	}

	if d.Session == nil {
		d.Session = session.NewStore(d.KV)
	}
	sess := d.Session
	store := hybrid.New(hybrid.Deps{KV: d.KV, Cloud: d.Cloud, Session: sess, Logger: d.Logger, Now: d.Now})
	app := &App{
		store:     store,
		session:   sess,
		cloud:     d.Cloud,
		backups:   backup.NewManager(store, d.KV, d.Logger),
		recurring: recurring.NewGenerator(d.KV, store.Events, d.Logger),
		logger:    d.Logger,
		out:       d.Out,
		in:        d.In,
		now:       d.Now,
		schedule:  d.SyncSchedule,
	}
	app.password = app.readPassword
	return app
}

// Open builds an App from the client configuration: a Redis or SQLite
// key-value store plus a cloud client for cfg.ServerURL.
func Open(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) (*App, error) {
	var (
		store  kv.Store
		closer func() error
	)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		store, closer = rediskv.New(client, cfg.Redis.Prefix), client.Close
		logger.Debug("Using redis store", "addr", cfg.Redis.Addr)
	} else {
		s, err := sqlitekv.New(cfg.DataPath)
		if err != nil {
			return nil, err
		}
		store, closer = s, s.Close
		logger.Debug("Using local store", "path", cfg.DataPath)
	}

	sess := session.NewStore(store)
	cloud := cloudstore.New(http.DefaultClient, cfg.ServerURL, sess, cloudstore.Timeouts{
		Read:  cfg.Timeouts.Read,
		Write: cfg.Timeouts.Write,
		Batch: cfg.Timeouts.Batch,
	})

	app := New(Deps{KV: store, Cloud: cloud, Session: sess, Logger: logger, SyncSchedule: cfg.Sync.Schedule})
	app.closers = append(app.closers, closer)
	return app, nil
}

// Close waits for background uploads and releases the store.
func (a *App) Close() error {
	a.store.Wait()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"login":               {"sign in to the sync server", a.login},
		"register":            {"create an account on the sync server", a.register},
		"logout":              {"sign out; local data is kept", a.logout},
		"whoami":              {"show the signed-in account", a.whoami},
		"push-token":          {"register a device push token", a.pushToken},
		"events":              {"list events", a.listEvents},
		"create":              {"create an event", a.createEvent},
		"show":                {"show an event with its month heat map", a.showEvent},
		"mark":                {"record a participant's availability", a.mark},
		"rsvp":                {"record a participant's RSVP for a fixed event", a.rsvp},
		"remove-participant":  {"remove a participant from an event", a.removeParticipant},
		"finalize":            {"pick the final date of an event", a.finalize},
		"archive":             {"archive or unarchive an event", a.archive},
		"delete":              {"delete an event", a.deleteEvent},
		"best":                {"list the best days of an event", a.best},
		"status":              {"show each participant's response status", a.status},
		"ics":                 {"export an event as an iCalendar file", a.ics},
		"import-availability": {"merge a CSV availability grid into an event", a.importAvailability},
		"snapshot":            {"save, list or delete event snapshots", a.snapshot},
		"template":            {"save, list or delete group templates", a.template},
		"backup":              {"create, list, restore or delete automatic backups", a.backup},
		"export":              {"write every record to an export file", a.export},
		"import":              {"add every record of an export file", a.importFile},
		"cleanup":             {"remove duplicate events and templates", a.cleanup},
		"recurring":           {"add, list or delete recurring templates", a.recurringCmd},
		"generate":            {"create this month's recurring events", a.generate},
		"sync":                {"pull from the cloud, once or on a schedule", a.sync},
	}
}

// Run dispatches args[0] to its subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	cmds := a.commands()
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage(cmds)
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		a.usage(cmds)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(ctx, args[1:])
}

func (a *App) usage(cmds map[string]command) {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(a.out, "Usage: gathersync <command> [OPTIONS]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-20s %s\n", name, cmds[name].summary)
	}
}

// flags returns a flag set that reports errors instead of exiting.
func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) requireCloud() error {
	if a.cloud == nil {
		return errors.New("no sync server configured")
	}
	return nil
}

// report prints the cloud half of a write when it did not succeed.
func (a *App) report(what string, o hybrid.Outcome) {
	switch o.Status {
	case hybrid.StatusSkipped:
		fmt.Fprintf(a.out, "%s saved on this device only (signed out)\n", what)
	case hybrid.StatusFailed:
		fmt.Fprintf(a.out, "%s saved on this device; cloud sync failed: %v\n", what, o.Err)
	}
}
