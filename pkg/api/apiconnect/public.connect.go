package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

// PublicService backs share links. It requires no session.
const PublicServiceName = "gathersync.v1.PublicService"

const (
	PublicServiceGetEventProcedure           = "/gathersync.v1.PublicService/GetEvent"
	PublicServiceUpdateAvailabilityProcedure = "/gathersync.v1.PublicService/UpdateAvailability"
)

type PublicServiceHandler interface {
	GetEvent(context.Context, *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error)
	UpdateAvailability(context.Context, *connect.Request[api.UpdateAvailabilityRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewPublicServiceHandler(svc PublicServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	getEvent := connect.NewUnaryHandler(PublicServiceGetEventProcedure, svc.GetEvent, opts...)
	update := connect.NewUnaryHandler(PublicServiceUpdateAvailabilityProcedure, svc.UpdateAvailability, opts...)
	return "/" + PublicServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PublicServiceGetEventProcedure:
			getEvent.ServeHTTP(w, r)
		case PublicServiceUpdateAvailabilityProcedure:
			update.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type PublicServiceClient interface {
	GetEvent(context.Context, *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error)
	UpdateAvailability(context.Context, *connect.Request[api.UpdateAvailabilityRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewPublicServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PublicServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &publicServiceClient{
		getEvent: connect.NewClient[api.GetEventRequest, api.GetEventResponse](httpClient, baseURL+PublicServiceGetEventProcedure, opts...),
		update:   connect.NewClient[api.UpdateAvailabilityRequest, emptypb.Empty](httpClient, baseURL+PublicServiceUpdateAvailabilityProcedure, opts...),
	}
}

type publicServiceClient struct {
	getEvent *connect.Client[api.GetEventRequest, api.GetEventResponse]
	update   *connect.Client[api.UpdateAvailabilityRequest, emptypb.Empty]
}

func (c *publicServiceClient) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	return c.getEvent.CallUnary(ctx, req)
}

func (c *publicServiceClient) UpdateAvailability(ctx context.Context, req *connect.Request[api.UpdateAvailabilityRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.update.CallUnary(ctx, req)
}
