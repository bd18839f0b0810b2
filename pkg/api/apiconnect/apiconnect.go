// Package apiconnect wires the api messages to Connect handlers and clients.
// It mirrors the layout of protoc-gen-connect-go output, with the JSON codec
// from package api installed on both sides.
package apiconnect

import (
	"strings"

	"connectrpc.com/connect"
	"github.com/mmynk/gathersync/pkg/api"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}

func trimBase(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}
