// Package service implements the GatherSync RPC handlers on top of
// storage.Store.
package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/auth"
	"github.com/mmynk/gathersync/internal/middleware"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/storage"
)

var errNotOwner = errors.New("record belongs to another account")

// toConnectError maps store and validation errors onto RPC codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, errNotOwner):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, models.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// checkOwner fails unless userID owns the event. Foreign events are reported
// as missing so ids cannot be probed.
func checkOwner(ctx context.Context, store storage.Store, userID, eventID string) error {
	owner, err := store.EventOwner(ctx, eventID)
	if err != nil {
		return err
	}
	if owner != userID {
		return fmt.Errorf("event %s: %w", eventID, errNotOwner)
	}
	return nil
}
