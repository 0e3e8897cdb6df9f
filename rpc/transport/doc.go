// Package transport defines the contract between the RPC layer and the wire.
//
// A transport moves opaque request and response bytes for a shard id. It knows
// nothing about messages or serializers, so every transport works with every
// serializer.
//
// Implementations:
//
//   - http: one POST per request to /{shardId}, also serves /metrics.
//   - grpc: a single unary method carrying the bytes in a BytesValue, the
//     shard id travels in the request metadata.
package transport
