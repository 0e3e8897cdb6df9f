// Package store provides the interface through which the rest of the system
// talks to the metadata state machine, independent of whether it is replicated.
//
// Key Components:
//
//   - IStore Interface: Write proposes a types.LogEntry and returns the
//     deterministic types.AppliedState once the entry is applied. The read
//     methods query the generic KV space, files, nodes, the catalog and the
//     raft meta records.
//
//   - Typed Helpers (api.go): UpsertKV, AddFile, IncrSeq, CreateDatabase,
//     CreateTable and friends wrap Write for a single command each and unpack
//     the matching part of the result. A command the state machine rejected is
//     returned as an *Error with code RetCRejected.
//
//   - Error System: Error carries a RetCode and a message, so callers can tell
//     transport or storage failures from rejected commands.
//
//   - Sweeper: Proposes ExpireKVs in a fixed interval on the leader, so that
//     expired values are deleted as part of the replicated log.
//
// Implementations:
//
//   - Local Store (lstore): Applies entries directly to a statemachine.StateMachine
//     in the same process, numbering them with a local counter.
//     Available in the "github.com/admariner/datafuse/lib/store/lstore" package.
//
//   - Distributed Store (dstore): Proposes entries through a Dragonboat raft
//     shard whose replicas each run the state machine as an on-disk state machine.
//     Available in the "github.com/admariner/datafuse/lib/store/dstore" package.
package store
