// Package internal defines the wire format between the dstore client and the
// dstore state machine: the Command envelope written to the raft log and the
// Query passed to Lookup.
package internal
