package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ExportVersion is written into every export file.
const ExportVersion = "1.0"

var ErrInvalidExport = errors.New("invalid backup file format")

// Envelope is the portable export file.
type Envelope struct {
	Version    string `json:"version"`
	ExportedAt string `json:"exportedAt"`
	Data
}

// Export captures every collection into an Envelope.
func (m *Manager) Export(ctx context.Context) (*Envelope, error) {
	data, err := m.collect(ctx)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Version:    ExportVersion,
		ExportedAt: m.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Data:       data,
	}, nil
}

// Import adds every record of env. A "pre-import" backup is taken first and
// the import is aborted if that fails.
func (m *Manager) Import(ctx context.Context, env *Envelope) (Counts, error) {
	if err := env.Validate(); err != nil {
		return Counts{}, err
	}

	backupID, err := m.CreateBackup(ctx, "pre-import")
	if err != nil {
		return Counts{}, fmt.Errorf("failed to back up before import: %w", err)
	}

	if err := m.addAll(ctx, env.Data); err != nil {
		return Counts{}, fmt.Errorf("import failed, restore backup %s to undo: %w", backupID, err)
	}
	counts := env.Counts()
	m.logger.Info("Import complete", "backup_id", backupID,
		"events", counts.Events, "snapshots", counts.Snapshots, "templates", counts.Templates)
	return counts, nil
}

func (e *Envelope) Validate() error {
	if e == nil || e.Version == "" || e.ExportedAt == "" || e.Events == nil {
		return ErrInvalidExport
	}
	return nil
}

// WriteEnvelope writes env as indented JSON.
func WriteEnvelope(w io.Writer, env *Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// ReadEnvelope parses and validates an export file.
func ReadEnvelope(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExport, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}
