package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/internal/notify"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

var errInvalidPushToken = errors.New("not an Expo push token")

// PushService keeps the registry of device push tokens.
type PushService struct {
	store storage.Store
}

var _ apiconnect.PushServiceHandler = (*PushService)(nil)

func NewPushService(store storage.Store) *PushService {
	return &PushService{store: store}
}

func (s *PushService) RegisterToken(ctx context.Context, req *connect.Request[api.RegisterTokenRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !notify.IsExpoPushToken(req.Msg.Token) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errInvalidPushToken)
	}

	token := &models.PushToken{
		Token:     req.Msg.Token,
		UserID:    userID,
		DeviceID:  req.Msg.DeviceID,
		Platform:  req.Msg.Platform,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SavePushToken(ctx, token); err != nil {
		slog.Error("RegisterToken failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Push token registered", "user_id", userID, "platform", req.Msg.Platform)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *PushService) UnregisterToken(ctx context.Context, req *connect.Request[api.UnregisterTokenRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeletePushToken(ctx, userID, req.Msg.Token); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}
