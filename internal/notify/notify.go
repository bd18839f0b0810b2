// Package notify delivers best-effort push notifications through the Expo
// push API. Delivery failures are logged and never returned to callers.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/gathersync/internal/models"
)

const (
	// DefaultEndpoint is the Expo push send endpoint.
	DefaultEndpoint = "https://exp.host/--/api/v2/push/send"
	// ChunkSize is the largest batch Expo accepts per request.
	ChunkSize = 100
)

// Payload is the visible part of a notification.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Dispatcher sends one payload to many device tokens.
type Dispatcher interface {
	Send(ctx context.Context, tokens []string, payload Payload)
}

// IsExpoPushToken reports whether token looks like an Expo device token.
func IsExpoPushToken(token string) bool {
	return (strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")) &&
		strings.HasSuffix(token, "]")
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

// ExpoDispatcher posts messages to the Expo push service.
type ExpoDispatcher struct {
	client   *http.Client
	endpoint string
	logger   *slog.Logger
}

var _ Dispatcher = (*ExpoDispatcher)(nil)

func NewExpoDispatcher(endpoint string, logger *slog.Logger) *ExpoDispatcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpoDispatcher{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
		logger:   logger,
	}
}

// Send drops invalid tokens and posts the rest in chunks of ChunkSize.
func (d *ExpoDispatcher) Send(ctx context.Context, tokens []string, payload Payload) {
	var messages []expoMessage
	for _, token := range tokens {
		if !IsExpoPushToken(token) {
			d.logger.Warn("Skipping invalid push token", "token", token)
			continue
		}
		messages = append(messages, expoMessage{
			To:    token,
			Title: payload.Title,
			Body:  payload.Body,
			Data:  payload.Data,
			Sound: "default",
		})
	}

	for start := 0; start < len(messages); start += ChunkSize {
		end := min(start+ChunkSize, len(messages))
		if err := d.post(ctx, messages[start:end]); err != nil {
			d.logger.Error("Failed to send push notifications", "count", end-start, "error", err)
		}
	}
}

func (d *ExpoDispatcher) post(ctx context.Context, messages []expoMessage) error {
	body, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo push API error: %s", resp.Status)
	}

	var result expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode expo response: %w", err)
	}
	for i, ticket := range result.Data {
		if ticket.Status == "error" {
			to := ""
			if i < len(messages) {
				to = messages[i].To
			}
			d.logger.Warn("Push ticket rejected", "token", to, "message", ticket.Message)
		}
	}
	return nil
}

// TokenLister looks up the devices registered to an account.
type TokenLister interface {
	ListPushTokens(ctx context.Context, userID string) ([]models.PushToken, error)
}

// Notifier resolves accounts to device tokens and dispatches.
type Notifier struct {
	tokens     TokenLister
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewNotifier(tokens TokenLister, dispatcher Dispatcher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{tokens: tokens, dispatcher: dispatcher, logger: logger}
}

// NotifyUser pushes payload to every device of userID.
func (n *Notifier) NotifyUser(ctx context.Context, userID string, payload Payload) {
	if n == nil || n.dispatcher == nil {
		return
	}
	tokens, err := n.tokens.ListPushTokens(ctx, userID)
	if err != nil {
		n.logger.Error("Failed to load push tokens", "user_id", userID, "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	values := make([]string, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, t.Token)
	}
	n.dispatcher.Send(ctx, values, payload)
}
