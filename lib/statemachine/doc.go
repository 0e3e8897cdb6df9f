/*
Package statemachine implements the replicated metadata state machine.

A StateMachine turns committed raft entries into changes of a persistent,
ordered store (a bbolt tree, see package db). It is deterministic: every replica
that applies the same entries in the same order ends up with the same state and
returns the same AppliedState for every entry.

# Records

All records live in one tree, split into keyspaces by a one byte key prefix:

	3  StateMachineMeta  last applied log id, initialized flag, last membership
	4  Nodes             node id -> node
	5  Files             key -> value
	6  GenericKV         key -> [seq, {meta, value}]
	7  Sequences         name -> counter
	8  Databases         name -> database
	9  Tables            table id -> table
	10 ClientLastResps   client -> last serial and response

# Applying

Apply runs each entry in a single transaction, so the side effects of a command
and the last applied log id are committed together. Commands carrying a TxID
that was applied before return the recorded response instead of being applied
twice. Expiry decisions during apply use the time stamped into the entry by the
proposer, never the local clock. Reads filter expired generic KV values against
the wall clock without deleting them, an ExpireKVs command removes them.

# Snapshots

Snapshot opens a read view of the tree; its pairs can be streamed with WriteTo.
InstallSnapshot imports pairs into a fresh tree and switches over to it. An
(epoch, version) id kept next to the trees guards against overlapping or
interrupted installs.

# Placement

Slots and the replication policy are configuration, not replicated state.
AssignRandNodesToSlot picks Mirror distinct registered nodes for a slot and
SlotForKey maps keys onto slots.
*/
package statemachine
