package types

import "fmt"

// --------------------------------------------------------------------------
// Raft Log Identifiers
// --------------------------------------------------------------------------

// LogID identifies a single raft log entry by term and index.
type LogID struct {
	Term  uint64 `json:"term"`
	Index uint64 `json:"index"`
}

// String returns the LogID formatted as "term-index".
func (id LogID) String() string {
	return fmt.Sprintf("%d-%d", id.Term, id.Index)
}

// Less reports whether id orders before other. Index dominates, term breaks ties.
func (id LogID) Less(other LogID) bool {
	if id.Index != other.Index {
		return id.Index < other.Index
	}
	return id.Term < other.Term
}

// Membership is the raft cluster configuration recorded by config-change entries.
// MembersAfterConsensus is only set while a joint consensus change is in flight.
type Membership struct {
	Members               []uint64 `json:"members"`
	MembersAfterConsensus []uint64 `json:"members_after_consensus"`
}

// --------------------------------------------------------------------------
// Client Entries
// --------------------------------------------------------------------------

// TxID identifies a client request for de-duplication. Serial must grow
// monotonically per client.
type TxID struct {
	Client string `json:"client"`
	Serial uint64 `json:"serial"`
}

// LogEntry is what a client proposes to the cluster.
//
// Time is the proposer's wall clock in unix seconds. The state machine uses it
// for every expiry decision taken while applying, so that all replicas reach the
// same result for the same entry. A zero Time disables expiry checks on apply.
type LogEntry struct {
	TxID *TxID  `json:"txid,omitempty"`
	Time uint64 `json:"time,omitempty"`
	Cmd  Cmd    `json:"cmd"`
}

// --------------------------------------------------------------------------
// Raft Entries
// --------------------------------------------------------------------------

// EntryType is the kind of payload carried by a raft Entry.
type EntryType uint8

const (
	EntryTBlank EntryType = iota
	EntryTNormal
	EntryTConfigChange
	EntryTSnapshotPointer
)

// String returns the name of the entry type.
func (t EntryType) String() string {
	switch t {
	case EntryTBlank:
		return "blank"
	case EntryTNormal:
		return "normal"
	case EntryTConfigChange:
		return "config_change"
	case EntryTSnapshotPointer:
		return "snapshot_pointer"
	default:
		return "unknown"
	}
}

// Entry is a committed raft log entry handed to the state machine.
// Exactly one of Normal and Membership is set, depending on Type.
type Entry struct {
	LogID      LogID       `json:"log_id"`
	Type       EntryType   `json:"type"`
	Normal     *LogEntry   `json:"normal,omitempty"`
	Membership *Membership `json:"membership,omitempty"`
	SnapshotID string      `json:"snapshot_id,omitempty"`
}

// NewNormalEntry wraps a client LogEntry.
func NewNormalEntry(id LogID, entry LogEntry) Entry {
	return Entry{LogID: id, Type: EntryTNormal, Normal: &entry}
}

// NewConfigChangeEntry wraps a membership change.
func NewConfigChangeEntry(id LogID, membership Membership) Entry {
	return Entry{LogID: id, Type: EntryTConfigChange, Membership: &membership}
}

// NewBlankEntry creates an entry without payload, as appended by a new leader.
func NewBlankEntry(id LogID) Entry {
	return Entry{LogID: id, Type: EntryTBlank}
}

// NewSnapshotPointerEntry creates an entry that marks where a snapshot was taken.
func NewSnapshotPointerEntry(id LogID, snapshotID string) Entry {
	return Entry{LogID: id, Type: EntryTSnapshotPointer, SnapshotID: snapshotID}
}
