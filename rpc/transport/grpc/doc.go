// Package grpc implements the transport interfaces on top of gRPC.
//
// The service has a single unary method, /dmeta.rpc.Transport/Handle, whose
// request and response are google.protobuf.BytesValue messages holding the
// serialized RPC message. The target shard id is sent in the "shard-id"
// metadata header. Since the payload is opaque the service descriptor is
// written by hand and no protoc step is needed.
//
// The client keeps one connection per endpoint, picks them round-robin and
// retries failed calls with a linear backoff.
package grpc
