package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// EventService stores the caller's events.
type EventService struct {
	store storage.Store
}

var _ apiconnect.EventServiceHandler = (*EventService)(nil)

func NewEventService(store storage.Store) *EventService {
	return &EventService{store: store}
}

func (s *EventService) ListEvents(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListEventsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.store.ListEvents(ctx, userID)
	if err != nil {
		slog.Error("ListEvents failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("ListEvents successful", "user_id", userID, "count", len(events))
	return connect.NewResponse(&api.ListEventsResponse{Events: events}), nil
}

func (s *EventService) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, s.store, userID, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}

	event, err := s.store.GetEvent(ctx, req.Msg.ID)
	if err != nil {
		slog.Error("GetEvent failed", "event_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetEventResponse{Event: *event}), nil
}

// CreateEvent stores the event row. Participants are created separately.
func (s *EventService) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	event := req.Msg.Event
	slog.Info("CreateEvent request received", "event_id", event.ID, "name", event.Name)

	if err := event.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = now
	}

	if err := s.store.CreateEvent(ctx, userID, &event); err != nil {
		slog.Error("CreateEvent failed", "event_id", event.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Event created", "event_id", event.ID)
	return connect.NewResponse(&api.CreateEventResponse{Event: event}), nil
}

// UpdateEvent overwrites the event row. Participants are ignored.
func (s *EventService) UpdateEvent(ctx context.Context, req *connect.Request[api.UpdateEventRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	event := req.Msg.Event
	slog.Info("UpdateEvent request received", "event_id", event.ID)

	if err := event.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	if err := checkOwner(ctx, s.store, userID, event.ID); err != nil {
		return nil, toConnectError(err)
	}
	if event.UpdatedAt.IsZero() {
		event.UpdatedAt = time.Now().UTC()
	}

	if err := s.store.UpdateEvent(ctx, &event); err != nil {
		slog.Error("UpdateEvent failed", "event_id", event.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// DeleteEvent removes the event and its participants for good.
func (s *EventService) DeleteEvent(ctx context.Context, req *connect.Request[api.DeleteEventRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, s.store, userID, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteEvent(ctx, req.Msg.ID); err != nil {
		slog.Error("DeleteEvent failed", "event_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Event deleted", "event_id", req.Msg.ID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}
