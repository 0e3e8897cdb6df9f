// Package rpc makes the metadata store reachable over the network.
//
// Subpackages:
//
//   - common: the Message protocol, server and client configuration, logging.
//   - serializer: json and gob encodings of Message.
//   - transport: byte transports (http, grpc) routing requests by shard id.
//   - server: hosts shards and dispatches requests to store and lock adapters.
//   - client: store.IStore and lockmgr.ILockManager implementations over RPC.
package rpc
