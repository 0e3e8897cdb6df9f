package internal

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/admariner/datafuse/lib/types"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name:     "Command with body",
			command:  Command{Type: CommandTNormal, Term: 3, Body: []byte("body")},
			expected: 1 + 8 + 4, // Type + Term + Body
		},
		{
			name:     "Command without body",
			command:  Command{Type: CommandTBlank, Term: 3},
			expected: 1 + 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name:    "Normal command",
			command: Command{Type: CommandTNormal, Term: 7, Body: []byte(`{"cmd":{}}`)},
		},
		{
			name:    "Blank command",
			command: Command{Type: CommandTBlank, Term: 1},
		},
		{
			name:    "Large term",
			command: Command{Type: CommandTConfigChange, Term: 1 << 60, Body: []byte("{}")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()

			if len(data) != tt.command.SizeBytes() {
				t.Errorf("Serialized data length = %v, want %v", len(data), tt.command.SizeBytes())
			}
			if CommandType(data[0]) != tt.command.Type {
				t.Errorf("Serialized Type = %v, want %v", CommandType(data[0]), tt.command.Type)
			}
			if term := binary.BigEndian.Uint64(data[1:9]); term != tt.command.Term {
				t.Errorf("Serialized Term = %v, want %v", term, tt.command.Term)
			}

			var got Command
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if got.Type != tt.command.Type || got.Term != tt.command.Term {
				t.Errorf("Deserialize() = %+v, want %+v", got, tt.command)
			}
			if !bytes.Equal(got.Body, tt.command.Body) {
				t.Errorf("Deserialize() Body = %q, want %q", got.Body, tt.command.Body)
			}
		})
	}
}

// TestDeserializeErrors tests error handling in Deserialize
func TestDeserializeErrors(t *testing.T) {
	var cmd Command
	if err := cmd.Deserialize([]byte{1, 2, 3}); err == nil {
		t.Error("Deserialize() expected error for short data")
	}
}

// TestDeserializeReusesBuffer checks that an existing body buffer is reused
func TestDeserializeReusesBuffer(t *testing.T) {
	src := Command{Type: CommandTNormal, Term: 1, Body: []byte("abc")}
	cmd := Command{Body: make([]byte, 0, 16)}
	buf := cmd.Body[:1]

	if err := cmd.Deserialize(src.Serialize()); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if &cmd.Body[0] != &buf[0] {
		t.Error("Deserialize() allocated a new buffer")
	}
}

// TestToEntry tests decoding envelopes into state machine entries
func TestToEntry(t *testing.T) {
	entry := types.LogEntry{
		TxID: &types.TxID{Client: "c", Serial: 2},
		Time: 100,
		Cmd:  types.NewIncrSeqCmd("s"),
	}
	normal, err := NewNormalCommand(4, entry)
	if err != nil {
		t.Fatalf("NewNormalCommand() error = %v", err)
	}
	membership := types.Membership{Members: []uint64{1, 2}}
	config, err := NewConfigChangeCommand(4, membership)
	if err != nil {
		t.Fatalf("NewConfigChangeCommand() error = %v", err)
	}

	tests := []struct {
		name    string
		command Command
		check   func(t *testing.T, e types.Entry)
	}{
		{
			name:    "Normal",
			command: normal,
			check: func(t *testing.T, e types.Entry) {
				if e.Type != types.EntryTNormal || e.Normal == nil {
					t.Fatalf("ToEntry() = %+v, want normal entry", e)
				}
				if *e.Normal.TxID != *entry.TxID || e.Normal.Time != 100 || e.Normal.Cmd.Type != types.CmdTIncrSeq {
					t.Errorf("ToEntry() Normal = %+v, want %+v", e.Normal, entry)
				}
			},
		},
		{
			name:    "ConfigChange",
			command: config,
			check: func(t *testing.T, e types.Entry) {
				if e.Type != types.EntryTConfigChange || e.Membership == nil || len(e.Membership.Members) != 2 {
					t.Errorf("ToEntry() = %+v, want config change", e)
				}
			},
		},
		{
			name:    "Blank",
			command: Command{Type: CommandTBlank, Term: 4},
			check: func(t *testing.T, e types.Entry) {
				if e.Type != types.EntryTBlank {
					t.Errorf("ToEntry() = %+v, want blank entry", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var decoded Command
			if err := decoded.Deserialize(tt.command.Serialize()); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			e, err := decoded.ToEntry(9)
			if err != nil {
				t.Fatalf("ToEntry() error = %v", err)
			}
			if e.LogID != (types.LogID{Term: 4, Index: 9}) {
				t.Errorf("ToEntry() LogID = %v, want 4-9", e.LogID)
			}
			tt.check(t, e)
		})
	}

	bad := Command{Type: CommandType(42)}
	if _, err := bad.ToEntry(1); err == nil {
		t.Error("ToEntry() expected error for unknown type")
	}
}
