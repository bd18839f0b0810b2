package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/storage"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// TemplateService stores reusable participant lists.
type TemplateService struct {
	store storage.Store
}

var _ apiconnect.TemplateServiceHandler = (*TemplateService)(nil)

func NewTemplateService(store storage.Store) *TemplateService {
	return &TemplateService{store: store}
}

func (s *TemplateService) ListTemplates(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[api.ListTemplatesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := s.store.ListTemplates(ctx, userID)
	if err != nil {
		slog.Error("ListTemplates failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.ListTemplatesResponse{Templates: templates}), nil
}

func (s *TemplateService) CreateTemplate(ctx context.Context, req *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	t := req.Msg.Template
	if err := t.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.CreateTemplate(ctx, userID, &t); err != nil {
		slog.Error("CreateTemplate failed", "template_id", t.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, req *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	t := req.Msg.Template
	if err := t.Validate(); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.UpdateTemplate(ctx, userID, &t); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, req *connect.Request[api.DeleteTemplateRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTemplate(ctx, userID, req.Msg.ID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}
