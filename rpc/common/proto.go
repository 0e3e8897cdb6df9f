package common

import (
	"encoding/json"
	"fmt"

	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Key      string          `json:"key,omitempty"`      // Used for: single key reads, prefix reads, Acquire, Release
	Keys     []string        `json:"keys,omitempty"`     // Used for: MGetKV
	ID       uint64          `json:"id,omitempty"`       // Used for: GetNode, GetTable
	DeleteIn uint64          `json:"deleteIn,omitempty"` // Used for: Acquire
	Entry    *types.LogEntry `json:"entry,omitempty"`    // Used for: Write (request)

	// Response fields
	Applied *types.AppliedState `json:"applied,omitempty"` // Used for: Write (response)
	Value   []byte              `json:"value,omitempty"`   // JSON encoded read result, owner id for Acquire and Release
	Ok      bool                `json:"ok,omitempty"`      // Used for: Acquire, Release responses
	Err     string              `json:"err,omitempty"`     // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewWriteRequest creates a new Write request
func NewWriteRequest(entry types.LogEntry) *Message {
	return &Message{
		MsgType: MsgTWrite,
		Entry:   &entry,
	}
}

// NewWriteResponse creates a new Write response
func NewWriteResponse(applied types.AppliedState, err error) *Message {
	msg := &Message{
		MsgType: MsgTWrite,
	}
	if err != nil {
		msg.Err = err.Error()
		return msg
	}
	msg.Applied = &applied
	return msg
}

// NewReadRequest creates a new read request of the given type
func NewReadRequest(t MessageType, key string, keys []string, id uint64) *Message {
	return &Message{
		MsgType: t,
		Key:     key,
		Keys:    keys,
		ID:      id,
	}
}

// NewReadResponse creates a new read response carrying result as JSON
func NewReadResponse(t MessageType, result any, err error) *Message {
	msg := &Message{
		MsgType: t,
	}
	if err != nil {
		msg.Err = err.Error()
		return msg
	}
	value, err := json.Marshal(result)
	if err != nil {
		msg.Err = fmt.Sprintf("failed to encode %s result: %s", t, err)
		return msg
	}
	msg.Value = value
	return msg
}

// NewAcquireRequest creates a new Acquire request
func NewAcquireRequest(key string, deleteIn uint64) *Message {
	return &Message{
		MsgType:  MsgTLCKAcquire,
		Key:      key,
		DeleteIn: deleteIn,
	}
}

// NewAcquireResponse creates a new Acquire response
func NewAcquireResponse(ok bool, value []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKAcquire,
		Ok:      ok,
		Value:   value,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewReleaseRequest creates a new Release request
func NewReleaseRequest(key string, ownerId []byte) *Message {
	return &Message{
		MsgType: MsgTLCKRelease,
		Key:     key,
		Value:   ownerId,
	}
}

// NewReleaseResponse creates a new Release response
func NewReleaseResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLCKRelease,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTWrite                  // Propose a log entry
	MsgTGetKV                  // Read a generic kv value
	MsgTMGetKV                 // Read several generic kv values
	MsgTPrefixListKV           // List generic kv pairs by prefix
	MsgTGetFile                // Read a file entry
	MsgTListFiles              // List file keys by prefix
	MsgTGetNode                // Read a node
	MsgTGetDatabase            // Read a database by name
	MsgTGetDatabases           // Read all databases
	MsgTGetDatabaseMetaVersion // Read the catalog version
	MsgTGetTable               // Read a table by id
	MsgTGetLastApplied         // Read the last applied log id
	MsgTGetMembership          // Read the last applied membership
	MsgTGetDBInfo              // Read storage information

	// ILockManager operations

	MsgTLCKAcquire // Acquire a lock
	MsgTLCKRelease // Release a lock
)

var msgTypeNames = map[MessageType]string{
	MsgTSuccess:                "success",
	MsgTError:                  "error",
	MsgTWrite:                  "write",
	MsgTGetKV:                  "getKV",
	MsgTMGetKV:                 "mGetKV",
	MsgTPrefixListKV:           "prefixListKV",
	MsgTGetFile:                "getFile",
	MsgTListFiles:              "listFiles",
	MsgTGetNode:                "getNode",
	MsgTGetDatabase:            "getDatabase",
	MsgTGetDatabases:           "getDatabases",
	MsgTGetDatabaseMetaVersion: "getDatabaseMetaVersion",
	MsgTGetTable:               "getTable",
	MsgTGetLastApplied:         "getLastApplied",
	MsgTGetMembership:          "getMembership",
	MsgTGetDBInfo:              "getDBInfo",
	MsgTLCKAcquire:             "acquire",
	MsgTLCKRelease:             "release",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, name := range msgTypeNames {
		if name == s {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}
