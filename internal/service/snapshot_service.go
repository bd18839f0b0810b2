package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// SnapshotService stores immutable event snapshots.
type SnapshotService struct {
	store storage.Store
}

var _ apiconnect.SnapshotServiceHandler = (*SnapshotService)(nil)

func NewSnapshotService(store storage.Store) *SnapshotService {
	return &SnapshotService{store: store}
}

func (s *SnapshotService) ListSnapshots(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSnapshotsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.store.ListSnapshots(ctx, userID)
	if err != nil {
		slog.Error("ListSnapshots failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListSnapshotsResponse{Snapshots: snapshots}), nil
}

func (s *SnapshotService) CreateSnapshot(ctx context.Context, req *connect.Request[api.CreateSnapshotRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	snap := req.Msg.Snapshot
	if err := snap.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.CreateSnapshot(ctx, userID, &snap); err != nil {
		slog.Error("CreateSnapshot failed", "snapshot_id", snap.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *SnapshotService) DeleteSnapshot(ctx context.Context, req *connect.Request[api.DeleteSnapshotRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteSnapshot(ctx, userID, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}
