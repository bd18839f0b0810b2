package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mmynk/gathersync/internal/backup"
	"github.com/mmynk/gathersync/internal/bulkimport"
	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/cleanup"
	"github.com/mmynk/gathersync/internal/hybrid"
	"github.com/mmynk/gathersync/internal/ics"
	"github.com/mmynk/gathersync/internal/models"
)

type subcommands map[string]func(ctx context.Context, args []string) error

// dispatch runs the subcommand named by args[0].
func (a *App) dispatch(ctx context.Context, name string, args []string, subs subcommands) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: %s needs a subcommand (%s)", ErrUsage, name, subs.names())
	}
	run, ok := subs[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown %s subcommand %q (%s)", ErrUsage, name, args[0], subs.names())
	}
	return run(ctx, args[1:])
}

func (s subcommands) names() string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// create opens path for writing; "-" is the command output.
func (a *App) create(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return a.out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// open opens path for reading; "-" is the command input.
func (a *App) open(path string) (io.Reader, func() error, error) {
	if path == "-" {
		return a.in, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (a *App) ics(ctx context.Context, args []string) error {
	fs := a.flags("ics")
	id := eventFlag(fs)
	out := fs.String("o", "", "Output file; \"-\" for stdout (default: <event name>.ics)")
	tz := fs.String("tz", "Local", "Time zone of fixed start times")
	duration := fs.Duration("duration", time.Hour, "Length of timed events")
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("%w: unknown time zone %q", ErrUsage, *tz)
	}

	text, err := ics.Export(*event, ics.Options{Now: a.now(), Location: loc, Duration: *duration})
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = ics.FileName(*event)
	}
	w, closeFn, err := a.create(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		closeFn()
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	if err := closeFn(); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(a.out, "Wrote %s\n", path)
	}
	return nil
}

func (a *App) importAvailability(ctx context.Context, args []string) error {
	fs := a.flags("import-availability")
	id := eventFlag(fs)
	file := fs.String("file", "-", "CSV or tab separated grid; \"-\" for stdin")
	example := fs.Bool("example", false, "Print an example grid for the event's month and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	event, err := a.loadEvent(ctx, id())
	if err != nil {
		return err
	}
	if *example {
		fmt.Fprint(a.out, bulkimport.Template(event.Year, event.Month))
		return nil
	}

	r, closeFn, err := a.open(*file)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := bulkimport.Parse(r, event.Year, event.Month)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(a.out, "skipped %s\n", msg)
	}

	stats := bulkimport.Apply(event, result.Rows, a.now())
	_, outcome, err := a.store.Events.Update(ctx, event.ID, models.EventPatch{Participants: event.Participants})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d rows: %d updated, %d added\n", len(result.Rows), stats.Updated, stats.Added)
	a.report("Availability", outcome)
	return nil
}

func (a *App) snapshot(ctx context.Context, args []string) error {
	return a.dispatch(ctx, "snapshot", args, subcommands{
		"save": func(ctx context.Context, args []string) error {
			fs := a.flags("snapshot save")
			id := eventFlag(fs)
			name := fs.String("name", "", "Snapshot name (default: event name and date)")
			if err := fs.Parse(args); err != nil {
				return err
			}
			event, err := a.loadEvent(ctx, id())
			if err != nil {
				return err
			}

			now := a.now()
			snap := models.EventSnapshot{
				ID:      calendar.GenerateIDAt(now),
				EventID: event.ID,
				Name:    *name,
				SavedAt: now.UTC(),
				Event:   *event,
			}
			if snap.Name == "" {
				snap.Name = fmt.Sprintf("%s (%s)", event.Name, calendar.FormatTime(now))
			}
			outcome, err := a.store.Snapshots.Add(ctx, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved snapshot %s\n", snap.ID)
			a.report("Snapshot", outcome)
			return nil
		},
		"list": func(ctx context.Context, args []string) error {
			if err := a.flags("snapshot list").Parse(args); err != nil {
				return err
			}
			snaps, err := a.store.Snapshots.GetAll(ctx)
			if err != nil {
				return err
			}
			sort.Slice(snaps, func(i, j int) bool { return snaps[i].SavedAt.After(snaps[j].SavedAt) })
			for _, s := range snaps {
				fmt.Fprintf(a.out, "%s  %s  %s (event %s)\n", s.ID, s.SavedAt.Format(time.RFC3339), s.Name, s.EventID)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(a.out, "No snapshots")
			}
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			return a.deleteByID(ctx, "snapshot delete", args, a.store.Snapshots.Delete)
		},
	})
}

func (a *App) template(ctx context.Context, args []string) error {
	return a.dispatch(ctx, "template", args, subcommands{
		"save": func(ctx context.Context, args []string) error {
			fs := a.flags("template save")
			name := fs.String("name", "", "Template name")
			participants := fs.String("participants", "", "Comma separated participant names")
			from := fs.String("event", "", "Copy the participants of this event")
			if err := fs.Parse(args); err != nil {
				return err
			}

			names := splitList(*participants)
			if *from != "" {
				event, err := a.loadEvent(ctx, *from)
				if err != nil {
					return err
				}
				for _, p := range event.ActiveParticipants() {
					names = append(names, p.Name)
				}
			}

			now := a.now()
			t := models.GroupTemplate{
				ID:               calendar.GenerateIDAt(now),
				Name:             strings.TrimSpace(*name),
				ParticipantNames: names,
				CreatedAt:        now.UTC(),
			}
			outcome, err := a.store.Templates.Add(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved template %s (%d participants)\n", t.ID, len(names))
			a.report("Template", outcome)
			return nil
		},
		"rename": func(ctx context.Context, args []string) error {
			fs := a.flags("template rename")
			name := fs.String("name", "", "New name")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if fs.NArg() != 1 || strings.TrimSpace(*name) == "" {
				return fmt.Errorf("%w: template rename -name NAME ID", ErrUsage)
			}
			t, outcome, err := a.store.Templates.Update(ctx, fs.Arg(0), models.GroupTemplatePatch{Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Renamed template %s to %s\n", t.ID, t.Name)
			a.report("Template", outcome)
			return nil
		},
		"list": func(ctx context.Context, args []string) error {
			if err := a.flags("template list").Parse(args); err != nil {
				return err
			}
			templates, err := a.store.Templates.GetAll(ctx)
			if err != nil {
				return err
			}
			for _, t := range templates {
				fmt.Fprintf(a.out, "%s  %s: %s\n", t.ID, t.Name, strings.Join(t.ParticipantNames, ", "))
			}
			if len(templates) == 0 {
				fmt.Fprintln(a.out, "No templates")
			}
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			return a.deleteByID(ctx, "template delete", args, a.store.Templates.Delete)
		},
	})
}

func (a *App) deleteByID(ctx context.Context, name string, args []string, del deleteFunc) error {
	fs := a.flags(name)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: %s ID", ErrUsage, name)
	}
	outcome, err := del(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", fs.Arg(0))
	a.report("Deletion", outcome)
	return nil
}

func (a *App) backup(ctx context.Context, args []string) error {
	return a.dispatch(ctx, "backup", args, subcommands{
		"create": func(ctx context.Context, args []string) error {
			fs := a.flags("backup create")
			reason := fs.String("reason", "Manual backup", "Why the backup was taken")
			if err := fs.Parse(args); err != nil {
				return err
			}
			id, err := a.backups.CreateBackup(ctx, *reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created backup %s\n", id)
			return nil
		},
		"list": func(ctx context.Context, args []string) error {
			if err := a.flags("backup list").Parse(args); err != nil {
				return err
			}
			backups, err := a.backups.List(ctx)
			if err != nil {
				return err
			}
			for _, b := range backups {
				c := b.Data.Counts()
				fmt.Fprintf(a.out, "%s  %s  %-24s %d events, %d snapshots, %d templates\n",
					b.ID, b.Timestamp.Local().Format(time.DateTime), b.Reason, c.Events, c.Snapshots, c.Templates)
			}
			if len(backups) == 0 {
				fmt.Fprintln(a.out, "No backups")
			}
			return nil
		},
		"restore": func(ctx context.Context, args []string) error {
			fs := a.flags("backup restore")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if fs.NArg() != 1 {
				return fmt.Errorf("%w: backup restore ID", ErrUsage)
			}
			c, err := a.backups.Restore(ctx, fs.Arg(0))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Restored %d events, %d snapshots, %d templates\n", c.Events, c.Snapshots, c.Templates)
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			fs := a.flags("backup delete")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if fs.NArg() != 1 {
				return fmt.Errorf("%w: backup delete ID", ErrUsage)
			}
			if err := a.backups.Delete(ctx, fs.Arg(0)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted backup %s\n", fs.Arg(0))
			return nil
		},
		"clear": func(ctx context.Context, args []string) error {
			if err := a.flags("backup clear").Parse(args); err != nil {
				return err
			}
			if err := a.backups.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Deleted every backup")
			return nil
		},
	})
}

func (a *App) export(ctx context.Context, args []string) error {
	fs := a.flags("export")
	out := fs.String("o", "", "Output file; \"-\" for stdout (default: gathersync-backup-<date>.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.backups.CreateBackup(ctx, "Before manual export"); err != nil {
		a.logger.Warn("Backup before export failed", "error", err)
	}
	env, err := a.backups.Export(ctx)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("gathersync-backup-%s.json", a.now().Format(time.DateOnly))
	}
	w, closeFn, err := a.create(path)
	if err != nil {
		return err
	}
	if err := backup.WriteEnvelope(w, env); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if path != "-" {
		c := env.Counts()
		fmt.Fprintf(a.out, "Exported %d events, %d snapshots, %d templates to %s\n", c.Events, c.Snapshots, c.Templates, path)
	}
	return nil
}

func (a *App) importFile(ctx context.Context, args []string) error {
	fs := a.flags("import")
	file := fs.String("file", "", "Export file to import; \"-\" for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", ErrUsage)
	}

	r, closeFn, err := a.open(*file)
	if err != nil {
		return err
	}
	defer closeFn()

	env, err := backup.ReadEnvelope(r)
	if err != nil {
		return err
	}
	c, err := a.backups.Import(ctx, env)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d events, %d snapshots, %d templates\n", c.Events, c.Snapshots, c.Templates)
	return nil
}

func (a *App) cleanup(ctx context.Context, args []string) error {
	fs := a.flags("cleanup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.backups.CreateBackup(ctx, "Before duplicate cleanup"); err != nil {
		return fmt.Errorf("failed to back up before cleanup: %w", err)
	}

	events, err := a.store.Events.GetAll(ctx)
	if err != nil {
		return err
	}
	eventResult, err := cleanup.RemoveDuplicates(ctx, events, cleanup.Events, discardOutcome(a.store.Events.Delete))
	if err != nil {
		return err
	}

	templates, err := a.store.Templates.GetAll(ctx)
	if err != nil {
		return err
	}
	templateResult, err := cleanup.RemoveDuplicates(ctx, templates, cleanup.GroupTemplates, discardOutcome(a.store.Templates.Delete))
	if err != nil {
		return err
	}

	recurringTemplates, err := a.recurring.Templates(ctx)
	if err != nil {
		return err
	}
	recurringResult, err := cleanup.RemoveDuplicates(ctx, recurringTemplates, cleanup.RecurringTemplates, a.recurring.Delete)
	if err != nil {
		return err
	}

	for _, r := range []struct {
		what   string
		result cleanup.Result
	}{
		{"events", eventResult},
		{"templates", templateResult},
		{"recurring templates", recurringResult},
	} {
		fmt.Fprintf(a.out, "%s: removed %d duplicates", r.what, r.result.Removed)
		if len(r.result.Duplicates) > 0 {
			fmt.Fprintf(a.out, " of %s", strings.Join(r.result.Duplicates, ", "))
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

type deleteFunc = func(ctx context.Context, id string) (hybrid.Outcome, error)

// discardOutcome adapts a store delete to cleanup's signature. Cloud failures
// are logged by the store.
func discardOutcome(del deleteFunc) func(ctx context.Context, id string) error {
	return func(ctx context.Context, id string) error {
		_, err := del(ctx, id)
		return err
	}
}
