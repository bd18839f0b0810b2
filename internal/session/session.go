// Package session holds the device's signed-in account. The hybrid store asks
// it on every call whether cloud sync is possible.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/gathersync/internal/kv"
)

// Profile is the signed-in account as returned by the auth service.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Provider exposes the current session. Either value may be empty.
type Provider interface {
	SessionToken(ctx context.Context) string
	UserInfo(ctx context.Context) *Profile
}

// IsAuthenticated reports whether p has both a token and a user.
func IsAuthenticated(ctx context.Context, p Provider) bool {
	if p == nil {
		return false
	}
	return p.SessionToken(ctx) != "" && p.UserInfo(ctx) != nil
}

type record struct {
	Token string   `json:"token"`
	User  *Profile `json:"user,omitempty"`
}

// Store persists the session under kv.KeySession.
type Store struct {
	kv kv.Store

	mu     sync.Mutex
	cached *record
}

var _ Provider = (*Store)(nil)

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func (s *Store) SessionToken(ctx context.Context) string {
	return s.load(ctx).Token
}

func (s *Store) UserInfo(ctx context.Context) *Profile {
	return s.load(ctx).User
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, token string, user Profile) error {
	rec := &record{Token: token, User: &user}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(ctx, kv.KeySession, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.cached = rec
	return nil
}

// Clear signs the device out.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Remove(ctx, kv.KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.cached = &record{}
	return nil
}

// load reads through to the kv store once. A corrupt or unreadable session
// is treated as signed out.
func (s *Store) load(ctx context.Context) record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached
	}

	raw, ok, err := s.kv.Get(ctx, kv.KeySession)
	if err != nil {
		slog.Warn("Failed to read session", "error", err)
		return record{}
	}
	rec := &record{}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), rec); err != nil {
			slog.Warn("Discarding unreadable session", "error", err)
			rec = &record{}
		}
	}
	s.cached = rec
	return *rec
}

// Static is a fixed Provider, handy for tools and tests.
type Static struct {
	Token string
	User  *Profile
}

func (s Static) SessionToken(context.Context) string { return s.Token }
func (s Static) UserInfo(context.Context) *Profile   { return s.User }
