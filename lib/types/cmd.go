package types

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

// Cmd is a single state machine command. Which fields are used depends on Type.
type Cmd struct {
	Type CmdType `json:"type"`

	Key   string `json:"key,omitempty"`   // Used for: AddFile, SetFile, IncrSeq, UpsertKV
	Value string `json:"value,omitempty"` // Used for: AddFile, SetFile

	NodeID NodeID `json:"node_id,omitempty"` // Used for: AddNode
	Node   *Node  `json:"node,omitempty"`    // Used for: AddNode

	Name   string `json:"name,omitempty"`   // Used for: CreateDatabase, DropDatabase
	Engine string `json:"engine,omitempty"` // Used for: CreateDatabase

	DBName    string     `json:"db_name,omitempty"`    // Used for: CreateTable, DropTable
	TableName string     `json:"table_name,omitempty"` // Used for: CreateTable, DropTable
	Table     *TableMeta `json:"table,omitempty"`      // Used for: CreateTable

	Seq       MatchSeq  `json:"seq"`                  // Used for: UpsertKV
	Op        Operation `json:"op"`                   // Used for: UpsertKV
	ValueMeta *KVMeta   `json:"value_meta,omitempty"` // Used for: UpsertKV
}

// String returns a short description used in logs.
func (c Cmd) String() string {
	switch c.Type {
	case CmdTAddNode:
		return fmt.Sprintf("%s(%d)", c.Type, c.NodeID)
	case CmdTCreateDatabase, CmdTDropDatabase:
		return fmt.Sprintf("%s(%s)", c.Type, c.Name)
	case CmdTCreateTable, CmdTDropTable:
		return fmt.Sprintf("%s(%s.%s)", c.Type, c.DBName, c.TableName)
	case CmdTUpsertKV:
		return fmt.Sprintf("%s(%s, %s)", c.Type, c.Key, c.Seq)
	case CmdTExpireKVs:
		return c.Type.String()
	default:
		return fmt.Sprintf("%s(%s)", c.Type, c.Key)
	}
}

// NewAddFileCmd adds a file entry if absent.
func NewAddFileCmd(key, value string) Cmd {
	return Cmd{Type: CmdTAddFile, Key: key, Value: value}
}

// NewSetFileCmd sets a file entry unconditionally.
func NewSetFileCmd(key, value string) Cmd {
	return Cmd{Type: CmdTSetFile, Key: key, Value: value}
}

// NewIncrSeqCmd increments the named sequence.
func NewIncrSeqCmd(key string) Cmd {
	return Cmd{Type: CmdTIncrSeq, Key: key}
}

// NewAddNodeCmd registers a node if absent.
func NewAddNodeCmd(id NodeID, node Node) Cmd {
	return Cmd{Type: CmdTAddNode, NodeID: id, Node: &node}
}

// NewCreateDatabaseCmd creates a database if absent.
func NewCreateDatabaseCmd(name, engine string) Cmd {
	return Cmd{Type: CmdTCreateDatabase, Name: name, Engine: engine}
}

// NewDropDatabaseCmd drops a database.
func NewDropDatabaseCmd(name string) Cmd {
	return Cmd{Type: CmdTDropDatabase, Name: name}
}

// NewCreateTableCmd creates a table inside an existing database if absent.
func NewCreateTableCmd(dbName, tableName string, meta TableMeta) Cmd {
	return Cmd{Type: CmdTCreateTable, DBName: dbName, TableName: tableName, Table: &meta}
}

// NewDropTableCmd drops a table.
func NewDropTableCmd(dbName, tableName string) Cmd {
	return Cmd{Type: CmdTDropTable, DBName: dbName, TableName: tableName}
}

// NewUpsertKVCmd builds a conditional generic KV write.
func NewUpsertKVCmd(key string, seq MatchSeq, op Operation, meta *KVMeta) Cmd {
	return Cmd{Type: CmdTUpsertKV, Key: key, Seq: seq, Op: op, ValueMeta: meta}
}

// NewUpdateKVMetaCmd refreshes only the metadata of a generic KV value.
func NewUpdateKVMetaCmd(key string, seq MatchSeq, meta *KVMeta) Cmd {
	return NewUpsertKVCmd(key, seq, OpAsIs(), meta)
}

// NewExpireKVsCmd removes all generic KV values expired at the entry time.
func NewExpireKVsCmd() Cmd {
	return Cmd{Type: CmdTExpireKVs}
}

// --------------------------------------------------------------------------
// Command Type Definition
// --------------------------------------------------------------------------

// CmdType defines the kind of command.
type CmdType uint8

const (
	CmdTUnknown CmdType = iota
	CmdTAddFile
	CmdTSetFile
	CmdTIncrSeq
	CmdTAddNode
	CmdTCreateDatabase
	CmdTDropDatabase
	CmdTCreateTable
	CmdTDropTable
	CmdTUpsertKV
	CmdTExpireKVs
)

var cmdTypeNames = map[CmdType]string{
	CmdTAddFile:        "add_file",
	CmdTSetFile:        "set_file",
	CmdTIncrSeq:        "incr_seq",
	CmdTAddNode:        "add_node",
	CmdTCreateDatabase: "create_database",
	CmdTDropDatabase:   "drop_database",
	CmdTCreateTable:    "create_table",
	CmdTDropTable:      "drop_table",
	CmdTUpsertKV:       "upsert_kv",
	CmdTExpireKVs:      "expire_kvs",
}

// String returns the string representation of a CmdType.
func (t CmdType) String() string {
	if name, ok := cmdTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the CmdType as its name.
func (t CmdType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a CmdType from its name.
func (t *CmdType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for ct, name := range cmdTypeNames {
		if name == s {
			*t = ct
			return nil
		}
	}
	return fmt.Errorf("unknown command type: %s", s)
}
