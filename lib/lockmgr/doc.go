// Package lockmgr implements a locking mechanism on top of the generic KV space
// of a store.IStore. It provides a simple way to coordinate access to shared
// resources across multiple processes or nodes.
//
// The lock manager only ever stores in the provided IStore and has no other
// internal state. Therefore it is safe to be created multiple times on the same
// store. As long as the same store is used every time, all locks work as expected.
//
// Implementation Approach:
//
//	Locks are generic KV values under KeyPrefix + key, written with conditional
//	upserts:
//
//	- Lock Acquisition: UpsertKV with MatchExact(0), which only succeeds if the key
//	  does not exist (an expired lock counts as absent). The value is a random owner
//	  ID. The lock is held if the resulting value carries our owner ID.
//
//	- Lock Expiration: A timeout sets the expire_at of the value. Expired locks are
//	  invisible to reads and can be acquired again; the sweeper removes them later.
//
//	- Lock Release: The current value is read and, if it belongs to the caller,
//	  deleted with MatchExact(seq). A lock that expired and was acquired by someone
//	  else in between has a new seq and is left alone.
package lockmgr
