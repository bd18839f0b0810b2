package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ParticipantServiceName = "gathersync.v1.ParticipantService"

const (
	ParticipantServiceListParticipantsProcedure  = "/gathersync.v1.ParticipantService/ListParticipants"
	ParticipantServiceCreateParticipantProcedure = "/gathersync.v1.ParticipantService/CreateParticipant"
	ParticipantServiceUpdateParticipantProcedure = "/gathersync.v1.ParticipantService/UpdateParticipant"
	ParticipantServiceDeleteParticipantProcedure = "/gathersync.v1.ParticipantService/DeleteParticipant"
)

type ParticipantServiceHandler interface {
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
	CreateParticipant(context.Context, *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error)
	UpdateParticipant(context.Context, *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteParticipant(context.Context, *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewParticipantServiceHandler(svc ParticipantServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	list := connect.NewUnaryHandler(ParticipantServiceListParticipantsProcedure, svc.ListParticipants, opts...)
	create := connect.NewUnaryHandler(ParticipantServiceCreateParticipantProcedure, svc.CreateParticipant, opts...)
	update := connect.NewUnaryHandler(ParticipantServiceUpdateParticipantProcedure, svc.UpdateParticipant, opts...)
	del := connect.NewUnaryHandler(ParticipantServiceDeleteParticipantProcedure, svc.DeleteParticipant, opts...)
	return "/" + ParticipantServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ParticipantServiceListParticipantsProcedure:
			list.ServeHTTP(w, r)
		case ParticipantServiceCreateParticipantProcedure:
			create.ServeHTTP(w, r)
		case ParticipantServiceUpdateParticipantProcedure:
			update.ServeHTTP(w, r)
		case ParticipantServiceDeleteParticipantProcedure:
			del.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type ParticipantServiceClient interface {
	ListParticipants(context.Context, *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error)
	CreateParticipant(context.Context, *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error)
	UpdateParticipant(context.Context, *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteParticipant(context.Context, *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewParticipantServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ParticipantServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &participantServiceClient{
		list:   connect.NewClient[api.ListParticipantsRequest, api.ListParticipantsResponse](httpClient, baseURL+ParticipantServiceListParticipantsProcedure, opts...),
		create: connect.NewClient[api.ParticipantRequest, emptypb.Empty](httpClient, baseURL+ParticipantServiceCreateParticipantProcedure, opts...),
		update: connect.NewClient[api.ParticipantRequest, emptypb.Empty](httpClient, baseURL+ParticipantServiceUpdateParticipantProcedure, opts...),
		del:    connect.NewClient[api.DeleteParticipantRequest, emptypb.Empty](httpClient, baseURL+ParticipantServiceDeleteParticipantProcedure, opts...),
	}
}

type participantServiceClient struct {
	list   *connect.Client[api.ListParticipantsRequest, api.ListParticipantsResponse]
	create *connect.Client[api.ParticipantRequest, emptypb.Empty]
	update *connect.Client[api.ParticipantRequest, emptypb.Empty]
	del    *connect.Client[api.DeleteParticipantRequest, emptypb.Empty]
}

func (c *participantServiceClient) ListParticipants(ctx context.Context, req *connect.Request[api.ListParticipantsRequest]) (*connect.Response[api.ListParticipantsResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *participantServiceClient) CreateParticipant(ctx context.Context, req *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *participantServiceClient) UpdateParticipant(ctx context.Context, req *connect.Request[api.ParticipantRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *participantServiceClient) DeleteParticipant(ctx context.Context, req *connect.Request[api.DeleteParticipantRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.del.CallUnary(ctx, req)
}
