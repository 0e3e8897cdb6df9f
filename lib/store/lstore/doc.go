// Package lstore implements a local, single-node store.IStore on top of a
// statemachine.StateMachine.
//
// Entries are applied in the calling goroutine. Since there is no raft log,
// the store numbers entries itself: an atomic counter seeded with the last
// applied index of the state machine. The state machine is persistent, so the
// data survives restarts and the numbering continues where it stopped.
//
// Entries without a Time get the local wall clock, which is the only clock
// there is on a single node.
//
// Usage Example:
//
//	sm, err := statemachine.Open(statemachine.Config{Path: "meta.db"})
//	s, err := lstore.NewLocalStore(sm)
//
//	seq, err := store.IncrSeq(s, "table_id")
//	change, err := store.UpsertKV(s, "config/a", types.MatchExact(0), types.OpUpdate(data), nil)
//
// For replicated deployments use the dstore package, which implements the same
// interface on top of a Dragonboat raft shard.
package lstore
