package api

import "github.com/mmynk/gathersync/internal/models"

// Events

type ListEventsResponse struct {
	Events []models.Event `json:"events"`
}

type GetEventRequest struct {
	ID string `json:"id"`
}

type GetEventResponse struct {
	Event models.Event `json:"event"`
}

// CreateEventRequest stores the event row. Participants are created with
// separate ParticipantService calls.
type CreateEventRequest struct {
	Event models.Event `json:"event"`
}

type CreateEventResponse struct {
	Event models.Event `json:"event"`
}

// UpdateEventRequest overwrites the event row. Participants are ignored.
type UpdateEventRequest struct {
	Event models.Event `json:"event"`
}

type DeleteEventRequest struct {
	ID string `json:"id"`
}

// Participants

type ListParticipantsRequest struct {
	EventID string `json:"eventId"`
}

type ListParticipantsResponse struct {
	Participants []models.Participant `json:"participants"`
}

type ParticipantRequest struct {
	EventID     string             `json:"eventId"`
	Participant models.Participant `json:"participant"`
}

type DeleteParticipantRequest struct {
	ID string `json:"id"`
}

// Snapshots

type ListSnapshotsResponse struct {
	Snapshots []models.EventSnapshot `json:"snapshots"`
}

type CreateSnapshotRequest struct {
	Snapshot models.EventSnapshot `json:"snapshot"`
}

type DeleteSnapshotRequest struct {
	ID string `json:"id"`
}

// Templates

type ListTemplatesResponse struct {
	Templates []models.GroupTemplate `json:"templates"`
}

type TemplateRequest struct {
	Template models.GroupTemplate `json:"template"`
}

type DeleteTemplateRequest struct {
	ID string `json:"id"`
}

// Public share links

// UpdateAvailabilityRequest lets a participant answer through a share link
// without an account.
type UpdateAvailabilityRequest struct {
	EventID             string            `json:"eventId"`
	ParticipantID       string            `json:"participantId"`
	Availability        map[string]bool   `json:"availability,omitempty"`
	UnavailableAllMonth *bool             `json:"unavailableAllMonth,omitempty"`
	RSVPStatus          models.RSVPStatus `json:"rsvpStatus,omitempty"`
}

// Auth

type UserProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

type GetCurrentUserResponse struct {
	User UserProfile `json:"user"`
}

// Push

type RegisterTokenRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"deviceId,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type UnregisterTokenRequest struct {
	Token string `json:"token"`
}
