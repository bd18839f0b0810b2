package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/notify"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// UserNotifier pushes a notification to every device of an account.
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, payload notify.Payload)
}

// ParticipantService manages the participants of the caller's events.
type ParticipantService struct {
	store    storage.Store
	notifier UserNotifier
}

var _ apiconnect.ParticipantServiceHandler = (*ParticipantService)(nil)

func NewParticipantService(store storage.Store, notifier UserNotifier) *ParticipantService {
	return &ParticipantService{store: store, notifier: notifier}
}

func (s *ParticipantService) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, s.store, userID, req.Msg.EventID); err != nil {
		return nil, toConnectError(err)
	}

	participants, err := s.store.ListParticipants(ctx, req.Msg.EventID)
	if err != nil {
		slog.Error("ListParticipants failed", "event_id", req.Msg.EventID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListParticipantsResponse{Participants: participants}), nil
}

func (s *ParticipantService) CreateParticipant(ctx context.Context, req *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	p := req.Msg.Participant
	if err := p.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	if err := checkOwner(ctx, s.store, userID, req.Msg.EventID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreateParticipant(ctx, req.Msg.EventID, &p); err != nil {
		slog.Error("CreateParticipant failed", "event_id", req.Msg.EventID, "participant_id", p.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// UpdateParticipant overwrites one participant. Availability changes notify
// the event owner when someone else made them.
func (s *ParticipantService) UpdateParticipant(ctx context.Context, req *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	p := req.Msg.Participant
	if err := p.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	if err := checkOwner(ctx, s.store, userID, req.Msg.EventID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateParticipant(ctx, req.Msg.EventID, &p); err != nil {
		slog.Error("UpdateParticipant failed", "event_id", req.Msg.EventID, "participant_id", p.ID, "error", err)
		return nil, toConnectError(err)
	}

	if p.Availability != nil {
		notifyAvailability(ctx, s.store, s.notifier, req.Msg.EventID, userID, p)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *ParticipantService) DeleteParticipant(ctx context.Context, req *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	eventID, err := s.store.ParticipantEvent(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := checkOwner(ctx, s.store, userID, eventID); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.DeleteParticipant(ctx, req.Msg.ID); err != nil {
		slog.Error("DeleteParticipant failed", "participant_id", req.Msg.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// notifyAvailability tells the event owner that p answered. The caller is
// never notified about their own change.
func notifyAvailability(ctx context.Context, store storage.Store, notifier UserNotifier, eventID, actorID string, p models.Participant) {
	if notifier == nil {
		return
	}
	owner, err := store.EventOwner(ctx, eventID)
	if err != nil {
		slog.Warn("Skipping availability notification", "event_id", eventID, "error", err)
		return
	}
	if owner == actorID {
		return
	}

	event, err := store.GetEvent(ctx, eventID)
	if err != nil {
		slog.Warn("Skipping availability notification", "event_id", eventID, "error", err)
		return
	}

	notifier.NotifyUser(ctx, owner, notify.Payload{
		Title: event.Name,
		Body:  fmt.Sprintf("%s updated their availability", p.Name),
		Data:  map[string]string{"eventId": eventID, "participantId": p.ID, "type": "availability"},
	})
}
