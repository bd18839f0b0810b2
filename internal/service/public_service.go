package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// PublicService answers share links. Callers need no account, only the
// event id and their participant id.
type PublicService struct {
	store    storage.Store
	notifier UserNotifier
	now      func() time.Time
}

var _ apiconnect.PublicServiceHandler = (*PublicService)(nil)

func NewPublicService(store storage.Store, notifier UserNotifier) *PublicService {
	return &PublicService{store: store, notifier: notifier, now: time.Now}
}

// GetEvent returns a live event without its removed participants.
func (s *PublicService) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	event, err := s.store.GetEvent(ctx, req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if event.DeletedAt != nil || event.Archived {
		return nil, toConnectError(fmt.Errorf("event %s: %w", req.Msg.ID, storage.ErrNotFound))
	}
	event.Participants = event.ActiveParticipants()
	return connect.NewResponse(&api.GetEventResponse{Event: *event}), nil
}

// UpdateAvailability records one participant's answers and bumps the event's
// UpdatedAt so devices pick the change up on their next pull.
func (s *PublicService) UpdateAvailability(ctx context.Context, req *connect.Request[api.UpdateAvailabilityRequest]) (*connect.Response[emptypb.Empty], error) {
	msg := req.Msg
	slog.Info("UpdateAvailability request received", "event_id", msg.EventID, "participant_id", msg.ParticipantID)

	event, err := s.store.GetEvent(ctx, msg.EventID)
	if err != nil {
		return nil, toConnectError(err)
	}

	var participant *models.Participant
	for i := range event.Participants {
		if event.Participants[i].ID == msg.ParticipantID && event.Participants[i].DeletedAt == nil {
			participant = &event.Participants[i]
			break
		}
	}
	if participant == nil {
		return nil, toConnectError(fmt.Errorf("participant %s: %w", msg.ParticipantID, storage.ErrNotFound))
	}

	if msg.Availability != nil {
		participant.Availability = msg.Availability
	}
	if msg.UnavailableAllMonth != nil {
		participant.UnavailableAllMonth = *msg.UnavailableAllMonth
	}
	if msg.RSVPStatus != "" {
		participant.RSVPStatus = msg.RSVPStatus
	}
	if err := participant.Validate(); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateParticipant(ctx, event.ID, participant); err != nil {
		slog.Error("UpdateAvailability failed", "event_id", event.ID, "error", err)
		return nil, toConnectError(err)
	}
	event.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		slog.Error("Failed to bump event timestamp", "event_id", event.ID, "error", err)
		return nil, toConnectError(err)
	}

	if msg.Availability != nil {
		// Anonymous callers never own the event, so the owner always hears about it.
		notifyAvailability(ctx, s.store, s.notifier, event.ID, "", *participant)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}
