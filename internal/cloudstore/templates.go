package cloudstore

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/internal/models"
	"github.com/mmynk/gathersync/pkg/api"
	"github.com/mmynk/gathersync/pkg/api/apiconnect"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Templates stores group templates.
type Templates struct {
	client   apiconnect.TemplateServiceClient
	timeouts Timeouts
}

func (s *Templates) List(ctx context.Context) ([]models.GroupTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Read)
	defer cancel()

	resp, err := s.client.ListTemplates(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return resp.Msg.Templates, nil
}

func (s *Templates) Get(ctx context.Context, id string) (*models.GroupTemplate, error) {
	templates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
}

func (s *Templates) Create(ctx context.Context, template models.GroupTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.client.CreateTemplate(ctx, connect.NewRequest(&api.TemplateRequest{Template: template})); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// Update overwrites the template. Templates have no children.
func (s *Templates) Update(ctx context.Context, template models.GroupTemplate, _ bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.client.UpdateTemplate(ctx, connect.NewRequest(&api.TemplateRequest{Template: template})); err != nil {
		return fmt.Errorf("failed to update template: %w", translate(err, "template", template.ID))
	}
	return nil
}

func (s *Templates) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Write)
	defer cancel()

	if _, err := s.client.DeleteTemplate(ctx, connect.NewRequest(&api.DeleteTemplateRequest{ID: id})); err != nil {
		return fmt.Errorf("failed to delete template: %w", translate(err, "template", id))
	}
	return nil
}
