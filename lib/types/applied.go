package types

// --------------------------------------------------------------------------
// Apply Results
// --------------------------------------------------------------------------

// Change is the before and after image of a single record.
// A nil Prev means the record did not exist, a nil Result means it does not exist afterwards.
type Change[T any] struct {
	Prev   *T `json:"prev"`
	Result *T `json:"result"`
}

// Changed reports whether the command created a new record.
func (c *Change[T]) Changed() bool {
	return c != nil && c.Prev == nil && c.Result != nil
}

// AppliedStateType tells which field of an AppliedState carries the result.
type AppliedStateType uint8

const (
	AppliedTNone AppliedStateType = iota
	AppliedTSeq
	AppliedTNode
	AppliedTFile
	AppliedTDatabase
	AppliedTTable
	AppliedTKV
	AppliedTExpired
	AppliedTError
)

// AppliedState is the result of applying one entry. It is deterministic:
// every replica produces the same value for the same entry.
type AppliedState struct {
	Type AppliedStateType `json:"type"`

	Seq      uint64            `json:"seq,omitempty"`
	Node     *Change[Node]     `json:"node,omitempty"`
	File     *Change[string]   `json:"file,omitempty"`
	Database *Change[Database] `json:"database,omitempty"`
	Table    *Change[Table]    `json:"table,omitempty"`
	KV       *Change[SeqValue] `json:"kv,omitempty"`
	Expired  uint64            `json:"expired,omitempty"`
	Err      *CmdError         `json:"err,omitempty"`
}

// AppliedNone is the result of entries without a command result.
func AppliedNone() AppliedState { return AppliedState{Type: AppliedTNone} }

// AppliedSeq wraps a sequence value.
func AppliedSeq(seq uint64) AppliedState { return AppliedState{Type: AppliedTSeq, Seq: seq} }

// AppliedNode wraps a node change.
func AppliedNode(prev, result *Node) AppliedState {
	return AppliedState{Type: AppliedTNode, Node: &Change[Node]{Prev: prev, Result: result}}
}

// AppliedFile wraps a file change.
func AppliedFile(prev, result *string) AppliedState {
	return AppliedState{Type: AppliedTFile, File: &Change[string]{Prev: prev, Result: result}}
}

// AppliedDatabase wraps a database change.
func AppliedDatabase(prev, result *Database) AppliedState {
	return AppliedState{Type: AppliedTDatabase, Database: &Change[Database]{Prev: prev, Result: result}}
}

// AppliedTable wraps a table change.
func AppliedTable(prev, result *Table) AppliedState {
	return AppliedState{Type: AppliedTTable, Table: &Change[Table]{Prev: prev, Result: result}}
}

// AppliedKV wraps a generic KV change.
func AppliedKV(prev, result *SeqValue) AppliedState {
	return AppliedState{Type: AppliedTKV, KV: &Change[SeqValue]{Prev: prev, Result: result}}
}

// AppliedExpired reports how many values an expiry sweep removed.
func AppliedExpired(n uint64) AppliedState { return AppliedState{Type: AppliedTExpired, Expired: n} }

// AppliedError records a command that was rejected deterministically.
func AppliedError(err *CmdError) AppliedState { return AppliedState{Type: AppliedTError, Err: err} }
