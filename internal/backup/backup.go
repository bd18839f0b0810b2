// Package backup keeps a ring of automatic device backups and reads and
// writes the portable export file.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmynk/gathersync/internal/hybrid"
	"github.com/mmynk/gathersync/internal/kv"
	"github.com/mmynk/gathersync/internal/localstore"
	"github.com/mmynk/gathersync/internal/models"
)

// MaxAutoBackups is how many automatic backups are retained.
const MaxAutoBackups = 10

var ErrBackupNotFound = errors.New("backup not found")

// Data is the content of one backup.
type Data struct {
	Events    []models.Event         `json:"events"`
	Snapshots []models.EventSnapshot `json:"snapshots"`
	Templates []models.GroupTemplate `json:"templates"`
}

// Counts summarizes a Data.
type Counts struct {
	Events    int
	Snapshots int
	Templates int
}

func (d Data) Counts() Counts {
	return Counts{Events: len(d.Events), Snapshots: len(d.Snapshots), Templates: len(d.Templates)}
}

// AutoBackup is one entry of the ring, newest first.
type AutoBackup struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
	Data      Data      `json:"data"`
}

func (b AutoBackup) GetID() string { return b.ID }

// Manager creates and restores backups of a hybrid.Store.
type Manager struct {
	store  *hybrid.Store
	ring   *localstore.Collection[AutoBackup]
	logger *slog.Logger
	now    func() time.Time
}

func NewManager(store *hybrid.Store, kvStore kv.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  store,
		ring:   localstore.New[AutoBackup](kvStore, kv.KeyAutoBackups),
		logger: logger,
		now:    time.Now,
	}
}

// CreateBackup captures every collection and prepends it to the ring,
// dropping the oldest entries beyond MaxAutoBackups.
func (m *Manager) CreateBackup(ctx context.Context, reason string) (string, error) {
	data, err := m.collect(ctx)
	if err != nil {
		return "", err
	}

	now := m.now().UTC()
	backup := AutoBackup{
		ID:        fmt.Sprintf("auto_%d_%s", now.UnixMilli(), strings.SplitN(uuid.NewString(), "-", 2)[0]),
		Timestamp: now,
		Reason:    reason,
		Data:      data,
	}

	backups, err := m.ring.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load backups: %w", err)
	}
	backups = append([]AutoBackup{backup}, backups...)
	if len(backups) > MaxAutoBackups {
		backups = backups[:MaxAutoBackups]
	}
	if err := m.ring.Save(ctx, backups); err != nil {
		return "", fmt.Errorf("failed to save backups: %w", err)
	}

	counts := data.Counts()
	m.logger.Info("Backup created", "id", backup.ID, "reason", reason,
		"events", counts.Events, "snapshots", counts.Snapshots, "templates", counts.Templates)
	return backup.ID, nil
}

// List returns the retained backups, newest first.
func (m *Manager) List(ctx context.Context) ([]AutoBackup, error) {
	return m.ring.Load(ctx)
}

// Restore re-adds every record of the backup through the ordinary add path.
// Records with an existing id replace the current copy.
func (m *Manager) Restore(ctx context.Context, id string) (Counts, error) {
	backup, err := m.ring.Find(ctx, id)
	if err != nil {
		return Counts{}, err
	}
	if backup == nil {
		return Counts{}, fmt.Errorf("%s: %w", id, ErrBackupNotFound)
	}

	if err := m.addAll(ctx, backup.Data); err != nil {
		return Counts{}, fmt.Errorf("failed to restore backup %s: %w", id, err)
	}
	m.logger.Info("Backup restored", "id", id)
	return backup.Data.Counts(), nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	removed, err := m.ring.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s: %w", id, ErrBackupNotFound)
	}
	return nil
}

// Clear drops every automatic backup.
func (m *Manager) Clear(ctx context.Context) error {
	return m.ring.Clear(ctx)
}

func (m *Manager) collect(ctx context.Context) (Data, error) {
	events, err := m.store.Events.GetAll(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read events: %w", err)
	}
	snapshots, err := m.store.Snapshots.GetAll(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read snapshots: %w", err)
	}
	templates, err := m.store.Templates.GetAll(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read templates: %w", err)
	}
	return Data{Events: events, Snapshots: snapshots, Templates: templates}, nil
}

// addAll stops at the first local failure. Cloud failures are already
// logged by the store and do not stop the restore.
func (m *Manager) addAll(ctx context.Context, data Data) error {
	for _, e := range data.Events {
		if _, err := m.store.Events.Add(ctx, e); err != nil {
			return err
		}
	}
	for _, s := range data.Snapshots {
		if _, err := m.store.Snapshots.Add(ctx, s); err != nil {
			return err
		}
	}
	for _, t := range data.Templates {
		if _, err := m.store.Templates.Add(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
