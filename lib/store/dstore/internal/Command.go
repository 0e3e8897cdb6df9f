package internal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/admariner/datafuse/lib/types"
)

// CommandType defines the kind of payload carried by a raft log entry.
type CommandType uint8

const (
	CommandTBlank        CommandType = iota // No payload, only advances the applied index.
	CommandTNormal                          // Body is a JSON encoded types.LogEntry.
	CommandTConfigChange                    // Body is a JSON encoded types.Membership.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTBlank:
		return "Blank"
	case CommandTNormal:
		return "Normal"
	case CommandTConfigChange:
		return "ConfigChange"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

const headerSize = 1 + 8 // Type + Term

// Command is the envelope proposed to the raft log. Dragonboat entries carry no
// term, so the proposer stamps the leader term it observed into the envelope.
// That is not necessarily the raft term the entry was committed in: it is 0
// when the proposer knew no leader, and it can lag behind after an election.
// The state machine adapter never lets the applied term decrease, which keeps
// LogID ordering and snapshot ids "{term}-{index}-{ts}" monotonic, but the term
// part of a LogID is only a lower bound of the commit term.
type Command struct {
	Type CommandType
	Term uint64
	Body []byte
}

// NewNormalCommand wraps a client entry.
func NewNormalCommand(term uint64, entry types.LogEntry) (Command, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return Command{}, fmt.Errorf("encode log entry: %w", err)
	}
	return Command{Type: CommandTNormal, Term: term, Body: body}, nil
}

// NewConfigChangeCommand wraps a membership.
func NewConfigChangeCommand(term uint64, membership types.Membership) (Command, error) {
	body, err := json.Marshal(membership)
	if err != nil {
		return Command{}, fmt.Errorf("encode membership: %w", err)
	}
	return Command{Type: CommandTConfigChange, Term: term, Body: body}, nil
}

// ToEntry decodes the envelope into the entry applied at index.
func (command *Command) ToEntry(index uint64) (types.Entry, error) {
	id := types.LogID{Term: command.Term, Index: index}
	switch command.Type {
	case CommandTBlank:
		return types.NewBlankEntry(id), nil
	case CommandTNormal:
		var entry types.LogEntry
		if err := json.Unmarshal(command.Body, &entry); err != nil {
			return types.Entry{}, fmt.Errorf("decode log entry: %w", err)
		}
		return types.NewNormalEntry(id, entry), nil
	case CommandTConfigChange:
		var membership types.Membership
		if err := json.Unmarshal(command.Body, &membership); err != nil {
			return types.Entry{}, fmt.Errorf("decode membership: %w", err)
		}
		return types.NewConfigChangeEntry(id, membership), nil
	default:
		return types.Entry{}, fmt.Errorf("unknown command type %s", command.Type)
	}
}

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return headerSize + len(command.Body)
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for the command type,
// 8 bytes for the term (big endian),
// N bytes for the body (optional)
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())
	result[0] = byte(command.Type)
	binary.BigEndian.PutUint64(result[1:headerSize], command.Term)
	copy(result[headerSize:], command.Body)
	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	command.Term = binary.BigEndian.Uint64(data[1:headerSize])

	if bodyLen := len(data) - headerSize; bodyLen > 0 {
		// Reuse existing buffer if possible to reduce allocations
		if command.Body == nil || cap(command.Body) < bodyLen {
			command.Body = make([]byte, bodyLen)
		} else {
			command.Body = command.Body[:bodyLen]
		}
		copy(command.Body, data[headerSize:])
	} else {
		command.Body = nil
	}

	return nil
}
