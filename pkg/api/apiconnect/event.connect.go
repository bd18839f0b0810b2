package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

const EventServiceName = "gathersync.v1.EventService"

const (
	EventServiceListEventsProcedure  = "/gathersync.v1.EventService/ListEvents"
	EventServiceGetEventProcedure    = "/gathersync.v1.EventService/GetEvent"
	EventServiceCreateEventProcedure = "/gathersync.v1.EventService/CreateEvent"
	EventServiceUpdateEventProcedure = "/gathersync.v1.EventService/UpdateEvent"
	EventServiceDeleteEventProcedure = "/gathersync.v1.EventService/DeleteEvent"
)

// EventServiceHandler serves the caller's events.
type EventServiceHandler interface {
	ListEvents(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListEventsResponse], error)
	GetEvent(context.Context, *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error)
	CreateEvent(context.Context, *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error)
	UpdateEvent(context.Context, *connect.Request[api.UpdateEventRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteEvent(context.Context, *connect.Request[api.DeleteEventRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewEventServiceHandler(svc EventServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	listEvents := connect.NewUnaryHandler(EventServiceListEventsProcedure, svc.ListEvents, opts...)
	getEvent := connect.NewUnaryHandler(EventServiceGetEventProcedure, svc.GetEvent, opts...)
	createEvent := connect.NewUnaryHandler(EventServiceCreateEventProcedure, svc.CreateEvent, opts...)
	updateEvent := connect.NewUnaryHandler(EventServiceUpdateEventProcedure, svc.UpdateEvent, opts...)
	deleteEvent := connect.NewUnaryHandler(EventServiceDeleteEventProcedure, svc.DeleteEvent, opts...)
	return "/" + EventServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EventServiceListEventsProcedure:
			listEvents.ServeHTTP(w, r)
		case EventServiceGetEventProcedure:
			getEvent.ServeHTTP(w, r)
		case EventServiceCreateEventProcedure:
			createEvent.ServeHTTP(w, r)
		case EventServiceUpdateEventProcedure:
			updateEvent.ServeHTTP(w, r)
		case EventServiceDeleteEventProcedure:
			deleteEvent.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type EventServiceClient interface {
	ListEvents(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListEventsResponse], error)
	GetEvent(context.Context, *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error)
	CreateEvent(context.Context, *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error)
	UpdateEvent(context.Context, *connect.Request[api.UpdateEventRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteEvent(context.Context, *connect.Request[api.DeleteEventRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewEventServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) EventServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &eventServiceClient{
		listEvents:  connect.NewClient[emptypb.Empty, api.ListEventsResponse](httpClient, baseURL+EventServiceListEventsProcedure, opts...),
		getEvent:    connect.NewClient[api.GetEventRequest, api.GetEventResponse](httpClient, baseURL+EventServiceGetEventProcedure, opts...),
		createEvent: connect.NewClient[api.CreateEventRequest, api.CreateEventResponse](httpClient, baseURL+EventServiceCreateEventProcedure, opts...),
		updateEvent: connect.NewClient[api.UpdateEventRequest, emptypb.Empty](httpClient, baseURL+EventServiceUpdateEventProcedure, opts...),
		deleteEvent: connect.NewClient[api.DeleteEventRequest, emptypb.Empty](httpClient, baseURL+EventServiceDeleteEventProcedure, opts...),
	}
}

type eventServiceClient struct {
	listEvents  *connect.Client[emptypb.Empty, api.ListEventsResponse]
	getEvent    *connect.Client[api.GetEventRequest, api.GetEventResponse]
	createEvent *connect.Client[api.CreateEventRequest, api.CreateEventResponse]
	updateEvent *connect.Client[api.UpdateEventRequest, emptypb.Empty]
	deleteEvent *connect.Client[api.DeleteEventRequest, emptypb.Empty]
}

func (c *eventServiceClient) ListEvents(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListEventsResponse], error) {
	return c.listEvents.CallUnary(ctx, req)
}

func (c *eventServiceClient) GetEvent(ctx context.Context, req *connect.Request[api.GetEventRequest]) (*connect.Response[api.GetEventResponse], error) {
	return c.getEvent.CallUnary(ctx, req)
}

func (c *eventServiceClient) CreateEvent(ctx context.Context, req *connect.Request[api.CreateEventRequest]) (*connect.Response[api.CreateEventResponse], error) {
	return c.createEvent.CallUnary(ctx, req)
}

func (c *eventServiceClient) UpdateEvent(ctx context.Context, req *connect.Request[api.UpdateEventRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.updateEvent.CallUnary(ctx, req)
}

func (c *eventServiceClient) DeleteEvent(ctx context.Context, req *connect.Request[api.DeleteEventRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.deleteEvent.CallUnary(ctx, req)
}
