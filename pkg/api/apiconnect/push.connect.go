package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

const PushServiceName = "gathersync.v1.PushService"

const (
	PushServiceRegisterTokenProcedure   = "/gathersync.v1.PushService/RegisterToken"
	PushServiceUnregisterTokenProcedure = "/gathersync.v1.PushService/UnregisterToken"
)

type PushServiceHandler interface {
	RegisterToken(context.Context, *connect.Request[api.RegisterTokenRequest]) (*connect.Response[emptypb.Empty], error)
	UnregisterToken(context.Context, *connect.Request[api.UnregisterTokenRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewPushServiceHandler(svc PushServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	register := connect.NewUnaryHandler(PushServiceRegisterTokenProcedure, svc.RegisterToken, opts...)
	unregister := connect.NewUnaryHandler(PushServiceUnregisterTokenProcedure, svc.UnregisterToken, opts...)
	return "/" + PushServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PushServiceRegisterTokenProcedure:
			register.ServeHTTP(w, r)
		case PushServiceUnregisterTokenProcedure:
			unregister.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type PushServiceClient interface {
	RegisterToken(context.Context, *connect.Request[api.RegisterTokenRequest]) (*connect.Response[emptypb.Empty], error)
	UnregisterToken(context.Context, *connect.Request[api.UnregisterTokenRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewPushServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PushServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &pushServiceClient{
		register:   connect.NewClient[api.RegisterTokenRequest, emptypb.Empty](httpClient, baseURL+PushServiceRegisterTokenProcedure, opts...),
		unregister: connect.NewClient[api.UnregisterTokenRequest, emptypb.Empty](httpClient, baseURL+PushServiceUnregisterTokenProcedure, opts...),
	}
}

type pushServiceClient struct {
	register   *connect.Client[api.RegisterTokenRequest, emptypb.Empty]
	unregister *connect.Client[api.UnregisterTokenRequest, emptypb.Empty]
}

func (c *pushServiceClient) RegisterToken(ctx context.Context, req *connect.Request[api.RegisterTokenRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *pushServiceClient) UnregisterToken(ctx context.Context, req *connect.Request[api.UnregisterTokenRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.unregister.CallUnary(ctx, req)
}
