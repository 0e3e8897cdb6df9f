// Package common provides the data structures shared by the RPC client, the
// RPC server and the transports of the metadata service.
//
// Key Components:
//
//   - Message: The single request/response structure of the RPC protocol. Writes
//     carry a types.LogEntry and are answered with the types.AppliedState the
//     state machine produced. Reads carry a key, a key list or an id and are
//     answered with the JSON encoded result in Value.
//
//   - MessageType: Enumeration of all supported operations, grouped into store
//     writes, store reads, lock operations and control messages.
//
//   - ServerConfig: Configuration of a server node. Holds the shards it serves,
//     the RAFT parameters and the state machine settings, and converts them to
//     the Dragonboat and statemachine configuration types.
//
//   - ClientConfig: Endpoints, timeout, retry count, transport and serializer
//     used by the RPC clients.
//
//   - Logger: A Dragonboat compatible logger factory with a uniform
//     "LEVEL | node | package | message" format. InitLoggers installs it once
//     per process and can be called again to change the levels, SetLogNode
//     sets the node column.
package common
