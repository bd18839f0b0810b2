package cloudstore

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Snapshots stores event snapshots. Snapshots are never edited.
type Snapshots struct {
	client   apiconnect.SnapshotServiceClient
	timeouts Timeouts
}

func (s *Snapshots) List(ctx context.Context) ([]models.EventSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Read)
	defer cancel()

	resp, err := s.client.ListSnapshots(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return resp.Msg.Snapshots, nil
}

// Get scans List; the server has no single-snapshot lookup.
func (s *Snapshots) Get(ctx context.Context, id string) (*models.EventSnapshot, error) {
	snapshots, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snapshots {
		if snapshots[i].ID == id {
			return &snapshots[i], nil
		}
	}
	return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
}

func (s *Snapshots) Create(ctx context.Context, snapshot models.EventSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.client.CreateSnapshot(ctx, connect.NewRequest(&api.CreateSnapshotRequest{Snapshot: snapshot})); err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

func (s *Snapshots) Update(context.Context, models.EventSnapshot, bool) error {
	return fmt.Errorf("failed to update snapshot: %w", errors.ErrUnsupported)
}

func (s *Snapshots) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.client.DeleteSnapshot(ctx, connect.NewRequest(&api.DeleteSnapshotRequest{ID: id})); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", translate(err, "snapshot", id))
	}
	return nil
}
