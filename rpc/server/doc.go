// Package server implements the RPC server of the metadata service.
//
// A server hosts any number of shards. Each shard owns one store and one
// adapter that translates RPC messages into calls on that store:
//
//   - NewIStoreServerAdapter serves writes (a types.LogEntry in, the
//     types.AppliedState out) and every read of store.IStore.
//
//   - NewLockManagerServerAdapter serves AcquireLock and ReleaseLock of a
//     lockmgr.ILockManager built on top of the store.
//
// The store of a shard is chosen by its type:
//
//   - ShardTypeLocalIStore / ShardTypeLocalILockManager: a state machine file
//     opened directly and wrapped by lstore. Suitable for a single node.
//
//   - ShardTypeRemoteIStore / ShardTypeRemoteILockManager: a raft replica
//     started on a Dragonboat NodeHost and accessed through dstore. Requires
//     ReplicaID and ClusterMembers.
//
// Every store gets an expiry sweeper that periodically proposes ExpireKVs.
// For raft shards only the current leader proposes.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalIStore},
//	    {ShardID: 200, Type: common.ShardTypeLocalILockManager},
//	  },
//	  DataDir:  "data",
//	  Endpoint: "0.0.0.0:8080",
//	  LogLevel: "info",
//	}
//
//	s := server.NewRPCServer(config, grpc.NewGrpcServerTransport(), serializer.NewJSONSerializer())
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Serve blocks until Stop is called from another goroutine. Stop closes the
// transport, stops the sweepers and closes all stores.
package server
