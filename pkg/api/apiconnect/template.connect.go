package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

const TemplateServiceName = "gathersync.v1.TemplateService"

const (
	TemplateServiceListTemplatesProcedure  = "/gathersync.v1.TemplateService/ListTemplates"
	TemplateServiceCreateTemplateProcedure = "/gathersync.v1.TemplateService/CreateTemplate"
	TemplateServiceUpdateTemplateProcedure = "/gathersync.v1.TemplateService/UpdateTemplate"
	TemplateServiceDeleteTemplateProcedure = "/gathersync.v1.TemplateService/DeleteTemplate"
)

type TemplateServiceHandler interface {
	ListTemplates(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListTemplatesResponse], error)
	CreateTemplate(context.Context, *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error)
	UpdateTemplate(context.Context, *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteTemplate(context.Context, *connect.Request[api.DeleteTemplateRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewTemplateServiceHandler(svc TemplateServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	list := connect.NewUnaryHandler(TemplateServiceListTemplatesProcedure, svc.ListTemplates, opts...)
	create := connect.NewUnaryHandler(TemplateServiceCreateTemplateProcedure, svc.CreateTemplate, opts...)
	update := connect.NewUnaryHandler(TemplateServiceUpdateTemplateProcedure, svc.UpdateTemplate, opts...)
	del := connect.NewUnaryHandler(TemplateServiceDeleteTemplateProcedure, svc.DeleteTemplate, opts...)
	return "/" + TemplateServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TemplateServiceListTemplatesProcedure:
			list.ServeHTTP(w, r)
		case TemplateServiceCreateTemplateProcedure:
			create.ServeHTTP(w, r)
		case TemplateServiceUpdateTemplateProcedure:
			update.ServeHTTP(w, r)
		case TemplateServiceDeleteTemplateProcedure:
			del.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type TemplateServiceClient interface {
	ListTemplates(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListTemplatesResponse], error)
	CreateTemplate(context.Context, *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error)
	UpdateTemplate(context.Context, *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteTemplate(context.Context, *connect.Request[api.DeleteTemplateRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewTemplateServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TemplateServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &templateServiceClient{
		list:   connect.NewClient[emptypb.Empty, api.ListTemplatesResponse](httpClient, baseURL+TemplateServiceListTemplatesProcedure, opts...),
		create: connect.NewClient[api.TemplateRequest, emptypb.Empty](httpClient, baseURL+TemplateServiceCreateTemplateProcedure, opts...),
		update: connect.NewClient[api.TemplateRequest, emptypb.Empty](httpClient, baseURL+TemplateServiceUpdateTemplateProcedure, opts...),
		del:    connect.NewClient[api.DeleteTemplateRequest, emptypb.Empty](httpClient, baseURL+TemplateServiceDeleteTemplateProcedure, opts...),
	}
}

type templateServiceClient struct {
	list   *connect.Client[emptypb.Empty, api.ListTemplatesResponse]
	create *connect.Client[api.TemplateRequest, emptypb.Empty]
	update *connect.Client[api.TemplateRequest, emptypb.Empty]
	del    *connect.Client[api.DeleteTemplateRequest, emptypb.Empty]
}

func (c *templateServiceClient) ListTemplates(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListTemplatesResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *templateServiceClient) CreateTemplate(ctx context.Context, req *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *templateServiceClient) UpdateTemplate(ctx context.Context, req *connect.Request[api.TemplateRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *templateServiceClient) DeleteTemplate(ctx context.Context, req *connect.Request[api.DeleteTemplateRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.del.CallUnary(ctx, req)
}
