package types

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Versioned Values
// --------------------------------------------------------------------------

// KVMeta holds the metadata attached to a generic KV value.
// ExpireAt is a unix timestamp in seconds, zero means the value never expires.
type KVMeta struct {
	ExpireAt uint64 `json:"expire_at,omitempty"`
}

// KVValue is a generic KV value with its optional metadata.
type KVValue struct {
	Meta  *KVMeta `json:"meta"`
	Value []byte  `json:"value"`
}

// ExpiredAt reports whether the value is expired at the given unix time.
func (v KVValue) ExpiredAt(now uint64) bool {
	return v.Meta != nil && v.Meta.ExpireAt != 0 && v.Meta.ExpireAt < now
}

// SeqValue is a value stamped with the sequence number of the write that
// produced it. It is encoded as a two element JSON array [seq, value].
type SeqValue struct {
	Seq   uint64
	Value KVValue
}

// MarshalJSON encodes the SeqValue as [seq, value].
func (sv SeqValue) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{sv.Seq, sv.Value})
}

// UnmarshalJSON decodes a SeqValue from [seq, value].
func (sv *SeqValue) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("seq value: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &sv.Seq); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &sv.Value)
}

// Unexpired returns sv, or nil if sv is nil or expired at now.
// A zero now disables the check.
func (sv *SeqValue) Unexpired(now uint64) *SeqValue {
	if sv == nil || (now != 0 && sv.Value.ExpiredAt(now)) {
		return nil
	}
	return sv
}

// KVPair is a key with its current value, as returned by prefix listings.
type KVPair struct {
	Key   string   `json:"key"`
	Value SeqValue `json:"value"`
}

// --------------------------------------------------------------------------
// Sequence Conditions
// --------------------------------------------------------------------------

// MatchSeqType selects how a MatchSeq compares against the current sequence.
type MatchSeqType uint8

const (
	MatchSeqTAny   MatchSeqType = iota // always matches
	MatchSeqTExact                     // current seq must equal Seq, 0 means the key must be absent
	MatchSeqTGE                        // current seq must be >= Seq
)

// MatchSeq is the condition an upsert places on the current value.
type MatchSeq struct {
	Type MatchSeqType `json:"type"`
	Seq  uint64       `json:"seq"`
}

// MatchAny matches any current state.
func MatchAny() MatchSeq { return MatchSeq{Type: MatchSeqTAny} }

// MatchExact matches if the current seq equals seq. MatchExact(0) means the key must not exist.
func MatchExact(seq uint64) MatchSeq { return MatchSeq{Type: MatchSeqTExact, Seq: seq} }

// MatchGE matches if the current seq is at least seq.
func MatchGE(seq uint64) MatchSeq { return MatchSeq{Type: MatchSeqTGE, Seq: seq} }

// Match checks the condition against prev, which is nil for an absent key.
func (m MatchSeq) Match(prev *SeqValue) error {
	var current uint64
	if prev != nil {
		current = prev.Seq
	}
	switch m.Type {
	case MatchSeqTAny:
		return nil
	case MatchSeqTExact:
		if current == m.Seq {
			return nil
		}
	case MatchSeqTGE:
		if current >= m.Seq {
			return nil
		}
	}
	return &SeqMismatchError{Want: m, Got: current}
}

// String returns a readable form like "==3" or ">=1".
func (m MatchSeq) String() string {
	switch m.Type {
	case MatchSeqTExact:
		return fmt.Sprintf("==%d", m.Seq)
	case MatchSeqTGE:
		return fmt.Sprintf(">=%d", m.Seq)
	default:
		return "any"
	}
}

// SeqMismatchError is returned by Match when the condition does not hold.
type SeqMismatchError struct {
	Want MatchSeq
	Got  uint64
}

func (e *SeqMismatchError) Error() string {
	return fmt.Sprintf("seq mismatch: want %s, got %d", e.Want, e.Got)
}

// --------------------------------------------------------------------------
// Upsert Operations
// --------------------------------------------------------------------------

// OperationType selects what an upsert does to the value.
type OperationType uint8

const (
	OpTUpdate OperationType = iota // write Value
	OpTDelete                      // remove the key
	OpTAsIs                        // keep the current value, refresh seq and meta
)

// Operation is the value side of an upsert.
type Operation struct {
	Type  OperationType `json:"type"`
	Value []byte        `json:"value,omitempty"`
}

// OpUpdate writes value.
func OpUpdate(value []byte) Operation { return Operation{Type: OpTUpdate, Value: value} }

// OpDelete removes the key.
func OpDelete() Operation { return Operation{Type: OpTDelete} }

// OpAsIs keeps the current value.
func OpAsIs() Operation { return Operation{Type: OpTAsIs} }
