// Package client implements RPC clients for the metadata service. The clients
// implement store.IStore and lockmgr.ILockManager, so code written against
// those interfaces works the same with a local store and a remote server.
//
// Key Components:
//
//   - NewRPCStore: a store.IStore whose Write sends the log entry to the server
//     and returns the applied state. Every client draws a random client id
//     (a UUID) and numbers its writes, so the transaction id of a write is
//     (client id, serial). A write that reaches the server twice because the
//     transport retried it is applied once, the second delivery returns the
//     cached result. Reads return the decoded result.
//
//   - NewRPCLockMgr: a lockmgr.ILockManager forwarding AcquireLock and
//     ReleaseLock to a lock manager shard.
//
//   - Registry / WriteStats: latency timers and error counters per message type.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Endpoints:     []string{"localhost:8080"},
//	  TimeoutSecond: 5,
//	  RetryCount:    3,
//	}
//
//	s, _ := client.NewRPCStore(100, config, http.NewHttpClientTransport(), serializer.NewJSONSerializer())
//	seq, _ := store.IncrSeq(s, "table_id")
//
//	locks, _ := client.NewRPCLockMgr(200, config, http.NewHttpClientTransport(), serializer.NewJSONSerializer())
//	if ok, owner, _ := locks.AcquireLock("compaction", 30); ok {
//	  defer locks.ReleaseLock("compaction", owner)
//	}
//
// Thread Safety:
//
//	All client implementations are safe for concurrent use.
package client
