package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
	"google.golang.org/protobuf/types/known/emptypb"
)

const SnapshotServiceName = "gathersync.v1.SnapshotService"

const (
	SnapshotServiceListSnapshotsProcedure  = "/gathersync.v1.SnapshotService/ListSnapshots"
	SnapshotServiceCreateSnapshotProcedure = "/gathersync.v1.SnapshotService/CreateSnapshot"
	SnapshotServiceDeleteSnapshotProcedure = "/gathersync.v1.SnapshotService/DeleteSnapshot"
)

type SnapshotServiceHandler interface {
	ListSnapshots(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSnapshotsResponse], error)
	CreateSnapshot(context.Context, *connect.Request[api.CreateSnapshotRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteSnapshot(context.Context, *connect.Request[api.DeleteSnapshotRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewSnapshotServiceHandler(svc SnapshotServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	list := connect.NewUnaryHandler(SnapshotServiceListSnapshotsProcedure, svc.ListSnapshots, opts...)
	create := connect.NewUnaryHandler(SnapshotServiceCreateSnapshotProcedure, svc.CreateSnapshot, opts...)
	del := connect.NewUnaryHandler(SnapshotServiceDeleteSnapshotProcedure, svc.DeleteSnapshot, opts...)
	return "/" + SnapshotServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SnapshotServiceListSnapshotsProcedure:
			list.ServeHTTP(w, r)
		case SnapshotServiceCreateSnapshotProcedure:
			create.ServeHTTP(w, r)
		case SnapshotServiceDeleteSnapshotProcedure:
			del.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

type SnapshotServiceClient interface {
	ListSnapshots(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSnapshotsResponse], error)
	CreateSnapshot(context.Context, *connect.Request[api.CreateSnapshotRequest]) (*connect.Response[emptypb.Empty], error)
	DeleteSnapshot(context.Context, *connect.Request[api.DeleteSnapshotRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewSnapshotServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SnapshotServiceClient {
	baseURL = trimBase(baseURL)
	opts = clientOptions(opts)
	return &snapshotServiceClient{
		list:   connect.NewClient[emptypb.Empty, api.ListSnapshotsResponse](httpClient, baseURL+SnapshotServiceListSnapshotsProcedure, opts...),
		create: connect.NewClient[api.CreateSnapshotRequest, emptypb.Empty](httpClient, baseURL+SnapshotServiceCreateSnapshotProcedure, opts...),
		del:    connect.NewClient[api.DeleteSnapshotRequest, emptypb.Empty](httpClient, baseURL+SnapshotServiceDeleteSnapshotProcedure, opts...),
	}
}

type snapshotServiceClient struct {
	list   *connect.Client[emptypb.Empty, api.ListSnapshotsResponse]
	create *connect.Client[api.CreateSnapshotRequest, emptypb.Empty]
	del    *connect.Client[api.DeleteSnapshotRequest, emptypb.Empty]
}

func (c *snapshotServiceClient) ListSnapshots(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListSnapshotsResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *snapshotServiceClient) CreateSnapshot(ctx context.Context, req *connect.Request[api.CreateSnapshotRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *snapshotServiceClient) DeleteSnapshot(ctx context.Context, req *connect.Request[api.DeleteSnapshotRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.del.CallUnary(ctx, req)
}
