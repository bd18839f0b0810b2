package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/gathersync/internal/calendar"
	"github.com/mmynk/gathersync/internal/hybrid"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/localstore"
	"github.com/mmynk/gathersync/internal/models"
)

// EventAdder stores generated events.
type EventAdder interface {
	Add(ctx context.Context, event models.Event) (hybrid.Outcome, error)
}

// Generator owns the device's recurring templates and creates their events.
// Templates are never synced to the cloud.
type Generator struct {
	templates *localstore.Collection[models.RecurringEventTemplate]
	events    EventAdder
	logger    *slog.Logger
}

func NewGenerator(store kv.Store, events EventAdder, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		templates: localstore.New[models.RecurringEventTemplate](store, kv.KeyRecurringTemplates),
		events:    events,
		logger:    logger,
	}
}

// Templates returns every stored template.
func (g *Generator) Templates(ctx context.Context) ([]models.RecurringEventTemplate, error) {
	return g.templates.Load(ctx)
}

// Save validates and stores t, assigning an id and creation time when
// missing.
func (g *Generator) Save(ctx context.Context, t models.RecurringEventTemplate, now time.Time) (models.RecurringEventTemplate, error) {
	if t.ID == "" {
		t.ID = calendar.GenerateIDAt(now)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now.UTC()
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	if _, err := g.templates.Upsert(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// Delete removes the template. Events it generated are kept.
func (g *Generator) Delete(ctx context.Context, id string) error {
	_, err := g.templates.Remove(ctx, id)
	return err
}

// Run generates the events due in the month of ref and advances each
// template's watermark. A template whose event could not be stored keeps its
// watermark and is retried on the next run.
func (g *Generator) Run(ctx context.Context, ref time.Time) ([]models.Event, error) {
	templates, err := g.templates.Load(ctx)
	if err != nil {
		return nil, err
	}

	year, month := ref.Year(), int(ref.Month())
	var generated []models.Event
	for _, t := range templates {
		if !ShouldGenerateForMonth(t, year, month) {
			continue
		}

		event := GenerateEvent(t, year, month, ref)
		outcome, err := g.events.Add(ctx, event)
		if err != nil {
			return generated, fmt.Errorf("failed to add event for template %s: %w", t.ID, err)
		}

		t.LastGeneratedMonth = calendar.MonthKey(year, month)
		if _, err := g.templates.Upsert(ctx, t); err != nil {
			return generated, fmt.Errorf("failed to update template %s: %w", t.ID, err)
		}

		g.logger.Info("Generated recurring event", "template_id", t.ID, "event_id", event.ID,
			"month", t.LastGeneratedMonth, "cloud", outcome.Status.String())
		generated = append(generated, event)
	}
	return generated, nil
}
