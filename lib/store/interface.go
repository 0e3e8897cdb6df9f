package store

import (
	"fmt"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the interface for interacting with the metadata state machine.
// Writes go through Write and return the deterministic result of the applied
// command, reads return the requested data along with an error (nil on success).
type IStore interface {
	// Write proposes entry and waits until it is applied.
	// A command rejected by the state machine is reported in the returned AppliedState, not as an error.
	Write(entry types.LogEntry) (applied types.AppliedState, err error)

	// GetKV returns the generic KV value for key, nil if absent or expired.
	GetKV(key string) (value *types.SeqValue, err error)
	// MGetKV returns the generic KV values for keys in order.
	MGetKV(keys []string) (values []*types.SeqValue, err error)
	// PrefixListKV returns all unexpired generic KV pairs whose key starts with prefix.
	PrefixListKV(prefix string) (pairs []types.KVPair, err error)

	// GetFile returns the file entry for key, nil if absent.
	GetFile(key string) (value *string, err error)
	// ListFiles returns the keys of all file entries starting with prefix.
	ListFiles(prefix string) (keys []string, err error)

	// GetNode returns the node registered under id, nil if absent.
	GetNode(id types.NodeID) (node *types.Node, err error)

	// GetDatabase returns the database called name, nil if absent.
	GetDatabase(name string) (database *types.Database, err error)
	// GetDatabases returns all databases by name.
	GetDatabases() (databases map[string]types.Database, err error)
	// GetDatabaseMetaVersion returns the catalog version, which grows with every catalog change.
	GetDatabaseMetaVersion() (version uint64, err error)
	// GetTable returns the table with the given id, nil if absent.
	GetTable(id uint64) (table *types.Table, err error)

	// GetLastApplied returns the id of the last applied raft entry.
	GetLastApplied() (id types.LogID, err error)
	// GetMembership returns the last applied membership, nil if none was applied yet.
	GetMembership() (membership *types.Membership, err error)

	// GetDBInfo returns information about the database underlying the store.
	GetDBInfo() (info db.Info, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCRejected                            // 4: Command was applied but rejected by the state machine.
)

// String returns the name of the return code.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}
