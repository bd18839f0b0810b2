// Package cloudstore is the device's client for the GatherSync server. Each
// adapter maps one local collection onto its RPC service and bounds every
// call with a timeout.
package cloudstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/session"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
)

// ErrNotFound is returned when the server has no record with the id.
var ErrNotFound = errors.New("not found in cloud")

// Timeouts bound cloud calls. Batch covers a whole parallel participant sync.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Batch time.Duration
}

// DefaultTimeouts are used for any zero field.
var DefaultTimeouts = Timeouts{
	Read:  10 * time.Second,
	Write: 30 * time.Second,
	Batch: 30 * time.Second,
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Read <= 0 {
		t.Read = DefaultTimeouts.Read
	}
	if t.Write <= 0 {
		t.Write = DefaultTimeouts.Write
	}
	if t.Batch <= 0 {
		t.Batch = DefaultTimeouts.Batch
	}
	return t
}

// Client bundles the collection adapters and the auth calls.
type Client struct {
	Events    *Events
	Snapshots *Snapshots
	Templates *Templates

	auth     apiconnect.AuthServiceClient
	push     apiconnect.PushServiceClient
	timeouts Timeouts
}

// New builds a client for the server at baseURL. Requests carry the bearer
// token that tokens holds at call time.
func New(httpClient connect.HTTPClient, baseURL string, tokens session.Provider, timeouts Timeouts) *Client {
	timeouts = timeouts.withDefaults()
	opts := []connect.ClientOption{connect.WithInterceptors(BearerInterceptor(tokens))}

	return &Client{
		Events: &Events{
			events:       apiconnect.NewEventServiceClient(httpClient, baseURL, opts...),
			participants: apiconnect.NewParticipantServiceClient(httpClient, baseURL, opts...),
			timeouts:     timeouts,
		},
		Snapshots: &Snapshots{
			client:   apiconnect.NewSnapshotServiceClient(httpClient, baseURL, opts...),
			timeouts: timeouts,
		},
		Templates: &Templates{
			client:   apiconnect.NewTemplateServiceClient(httpClient, baseURL, opts...),
			timeouts: timeouts,
		},
		auth:     apiconnect.NewAuthServiceClient(httpClient, baseURL, opts...),
		push:     apiconnect.NewPushServiceClient(httpClient, baseURL, opts...),
		timeouts: timeouts,
	}
}

// BearerInterceptor sets the Authorization header on outgoing requests when
// tokens has a session.
func BearerInterceptor(tokens session.Provider) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && tokens != nil {
				if token := tokens.SessionToken(ctx); token != "" {
					req.Header().Set("Authorization", "Bearer "+token)
				}
			}
			return next(ctx, req)
		}
	}
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (string, session.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Write)
	defer cancel()

	resp, err := c.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: email, Password: password}))
	if err != nil {
		return "", session.Profile{}, fmt.Errorf("failed to log in: %w", err)
	}
	return resp.Msg.Token, profile(resp.Msg.User), nil
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, email, displayName, password string) (string, session.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Write)
	defer cancel()

	resp, err := c.auth.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: displayName,
		Password:    password,
	}))
	if err != nil {
		return "", session.Profile{}, fmt.Errorf("failed to register: %w", err)
	}
	return resp.Msg.Token, profile(resp.Msg.User), nil
}

// RegisterPushToken records this device's push token for the signed-in user.
func (c *Client) RegisterPushToken(ctx context.Context, token, deviceID, platform string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Write)
	defer cancel()

	_, err := c.push.RegisterToken(ctx, connect.NewRequest(&api.RegisterTokenRequest{
		Token:    token,
		DeviceID: deviceID,
		Platform: platform,
	}))
	if err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	return nil
}

func profile(u api.UserProfile) session.Profile {
	return session.Profile{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

// translate folds the server's NotFound code into ErrNotFound.
func translate(err error, kind, id string) error {
	if connect.CodeOf(err) == connect.CodeNotFound {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return err
}

// IsUnavailable reports whether err is a transport failure rather than a
// server rejection.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	switch connect.CodeOf(err) {
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded, connect.CodeCanceled:
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
