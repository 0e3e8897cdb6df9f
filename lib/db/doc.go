// Package db is the persistent storage layer of the state machine.
//
// A DB is a single bbolt file that holds any number of named trees. A Tree is an
// ordered byte keyed map (a top level bucket). All access goes through
// transactions:
//
//   - Tree.Update runs a function inside one read-write transaction. The state
//     machine applies every raft entry in exactly one such transaction, so the
//     side effects of a command and the last applied log id become visible
//     together or not at all.
//   - Tree.View runs a read-only transaction.
//   - Tree.Snapshot keeps a read-only transaction open and returns it as a View.
//     Writes committed after the view was opened are not visible through it,
//     which is what a raft snapshot needs.
//
// Values handed out by a Txn are copies, so callers may keep them after the
// transaction ended.
//
// The keyspace sub package (github.com/admariner/datafuse/lib/db/keyspace) builds
// typed views on top of a Txn: every keyspace owns a one byte key prefix inside a
// tree and encodes its keys and values.
package db
