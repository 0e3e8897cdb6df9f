/*
Package types holds the data model shared by the state machine, the stores and the RPC layer.

It contains the raft-facing entry model (LogID, Membership, Entry), the client facing
log entry (LogEntry with its optional TxID), every command the state machine can apply
(Cmd) and the result of applying it (AppliedState). The catalog types (Node, Database,
Table, Slot) and the versioned KV types (SeqValue, KVMeta, MatchSeq, Operation) are
defined here as well.

All types are plain data and encode to JSON, which is also the format used to persist
them inside the state machine tree and to transport them between client and server.
*/
package types
