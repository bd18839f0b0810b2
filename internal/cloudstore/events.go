package cloudstore

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Events stores events and their participants. The server keeps
// participants as separate rows, so writes fan out into participant calls.
type Events struct {
	events       apiconnect.EventServiceClient
	participants apiconnect.ParticipantServiceClient
	timeouts     Timeouts
}

// List returns every live event of the signed-in account.
func (s *Events) List(ctx context.Context) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Read)
	defer cancel()

	resp, err := s.events.ListEvents(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]models.Event, 0, len(resp.Msg.Events))
	for _, e := range resp.Msg.Events {
		if e.DeletedAt != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Events) Get(ctx context.Context, id string) (*models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Read)
	defer cancel()

	resp, err := s.events.GetEvent(ctx, connect.NewRequest(&api.GetEventRequest{ID: id}))
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", translate(err, "event", id))
	}
	event := resp.Msg.Event
	return &event, nil
}

// Create stores the event row and then every participant in parallel. An
// event the server already has is updated instead.
func (s *Events) Create(ctx context.Context, event models.Event) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	_, err := s.events.CreateEvent(writeCtx, connect.NewRequest(&api.CreateEventRequest{Event: event}))
	if connect.CodeOf(err) == connect.CodeAlreadyExists {
		slog.Debug("Event already in cloud, updating instead", "event_id", event.ID)
		return s.Update(ctx, event, true)
	}
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	batchCtx, cancelBatch := context.WithTimeout(ctx, s.timeouts.Batch)
	defer cancelBatch()

	g, gctx := errgroup.WithContext(batchCtx)
	for _, p := range event.Participants {
		g.Go(func() error {
			return s.createParticipant(gctx, event.ID, p)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to create participants of event %s: %w", event.ID, err)
	}
	return nil
}

// Update overwrites the event row. With withChildren the server's
// participants are reconciled against event.Participants: dropped ids are
// deleted, kept ids updated and new ids created.
func (s *Events) Update(ctx context.Context, event models.Event, withChildren bool) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.events.UpdateEvent(writeCtx, connect.NewRequest(&api.UpdateEventRequest{Event: event})); err != nil {
		return fmt.Errorf("failed to update event: %w", translate(err, "event", event.ID))
	}
	if !withChildren {
		return nil
	}

	batchCtx, cancelBatch := context.WithTimeout(ctx, s.timeouts.Batch)
	defer cancelBatch()

	resp, err := s.participants.ListParticipants(batchCtx, connect.NewRequest(&api.ListParticipantsRequest{EventID: event.ID}))
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}
	diff := DiffParticipants(resp.Msg.Participants, event.Participants)

	g, gctx := errgroup.WithContext(batchCtx)
	for _, id := range diff.Deleted {
		g.Go(func() error {
			_, err := s.participants.DeleteParticipant(gctx, connect.NewRequest(&api.DeleteParticipantRequest{ID: id}))
			if err != nil {
				return fmt.Errorf("failed to delete participant %s: %w", id, err)
			}
			return nil
		})
	}
	for _, p := range diff.Updated {
		g.Go(func() error {
			_, err := s.participants.UpdateParticipant(gctx, connect.NewRequest(&api.ParticipantRequest{EventID: event.ID, Participant: p}))
			if err != nil {
				return fmt.Errorf("failed to update participant %s: %w", p.ID, err)
			}
			return nil
		})
	}
	for _, p := range diff.Created {
		g.Go(func() error {
			return s.createParticipant(gctx, event.ID, p)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to sync participants of event %s: %w", event.ID, err)
	}
	return nil
}

func (s *Events) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.events.DeleteEvent(ctx, connect.NewRequest(&api.DeleteEventRequest{ID: id})); err != nil {
		return fmt.Errorf("failed to delete event: %w", translate(err, "event", id))
	}
	return nil
}

func (s *Events) createParticipant(ctx context.Context, eventID string, p models.Participant) error {
	_, err := s.participants.CreateParticipant(ctx, connect.NewRequest(&api.ParticipantRequest{EventID: eventID, Participant: p}))
	if err != nil {
		return fmt.Errorf("failed to create participant %s: %w", p.ID, err)
	}
	return nil
}

// ParticipantDiff is the set of calls that turns the server's participant
// list into the local one.
type ParticipantDiff struct {
	Deleted []string
	Updated []models.Participant
	Created []models.Participant
}

// DiffParticipants compares the server's participants with the desired list
// by id.
func DiffParticipants(remote, desired []models.Participant) ParticipantDiff {
	remoteIDs := make(map[string]bool, len(remote))
	for _, p := range remote {
		remoteIDs[p.ID] = true
	}
	desiredIDs := make(map[string]bool, len(desired))

	var diff ParticipantDiff
	for _, p := range desired {
		desiredIDs[p.ID] = true
		if remoteIDs[p.ID] {
			diff.Updated = append(diff.Updated, p)
		} else {
			diff.Created = append(diff.Created, p)
		}
	}
	for _, p := range remote {
		if !desiredIDs[p.ID] {
			diff.Deleted = append(diff.Deleted, p.ID)
		}
	}
	return diff
}
