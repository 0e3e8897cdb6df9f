package store

import (
	"fmt"

	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Typed Write Helpers
// --------------------------------------------------------------------------

// writeCmd writes cmd and checks that the result has the expected type.
// A rejected command is returned as a *Error with code RetCRejected.
func writeCmd(s IStore, cmd types.Cmd, want types.AppliedStateType) (types.AppliedState, error) {
	st, err := s.Write(types.LogEntry{Cmd: cmd})
	if err != nil {
		return st, err
	}
	if st.Type == types.AppliedTError && st.Err != nil {
		return st, NewError(RetCRejected, st.Err.Error())
	}
	if st.Type != want {
		return st, NewError(RetCInternalError, fmt.Sprintf("%s: unexpected result type %d", cmd.Type, st.Type))
	}
	return st, nil
}

// UpsertKV performs a conditional write of a generic KV value.
// If the condition fails the result is (prev, prev).
func UpsertKV(s IStore, key string, seq types.MatchSeq, op types.Operation, meta *types.KVMeta) (*types.Change[types.SeqValue], error) {
	st, err := writeCmd(s, types.NewUpsertKVCmd(key, seq, op, meta), types.AppliedTKV)
	if err != nil {
		return nil, err
	}
	return st.KV, nil
}

// UpdateKVMeta replaces the metadata of a generic KV value, keeping the value.
func UpdateKVMeta(s IStore, key string, seq types.MatchSeq, meta *types.KVMeta) (*types.Change[types.SeqValue], error) {
	st, err := writeCmd(s, types.NewUpdateKVMetaCmd(key, seq, meta), types.AppliedTKV)
	if err != nil {
		return nil, err
	}
	return st.KV, nil
}

// AddFile stores a file entry unless key exists.
func AddFile(s IStore, key, value string) (*types.Change[string], error) {
	st, err := writeCmd(s, types.NewAddFileCmd(key, value), types.AppliedTFile)
	if err != nil {
		return nil, err
	}
	return st.File, nil
}

// SetFile stores a file entry, replacing an existing one.
func SetFile(s IStore, key, value string) (*types.Change[string], error) {
	st, err := writeCmd(s, types.NewSetFileCmd(key, value), types.AppliedTFile)
	if err != nil {
		return nil, err
	}
	return st.File, nil
}

// IncrSeq increments the named sequence and returns the new value.
func IncrSeq(s IStore, key string) (uint64, error) {
	st, err := writeCmd(s, types.NewIncrSeqCmd(key), types.AppliedTSeq)
	if err != nil {
		return 0, err
	}
	return st.Seq, nil
}

// AddNode registers a node unless the id is taken.
func AddNode(s IStore, id types.NodeID, node types.Node) (*types.Change[types.Node], error) {
	st, err := writeCmd(s, types.NewAddNodeCmd(id, node), types.AppliedTNode)
	if err != nil {
		return nil, err
	}
	return st.Node, nil
}

// CreateDatabase creates a database unless it exists.
func CreateDatabase(s IStore, name, engine string) (*types.Change[types.Database], error) {
	st, err := writeCmd(s, types.NewCreateDatabaseCmd(name, engine), types.AppliedTDatabase)
	if err != nil {
		return nil, err
	}
	return st.Database, nil
}

// DropDatabase drops a database and its tables.
func DropDatabase(s IStore, name string) (*types.Change[types.Database], error) {
	st, err := writeCmd(s, types.NewDropDatabaseCmd(name), types.AppliedTDatabase)
	if err != nil {
		return nil, err
	}
	return st.Database, nil
}

// CreateTable creates a table in an existing database unless it exists.
func CreateTable(s IStore, dbName, tableName string, meta types.TableMeta) (*types.Change[types.Table], error) {
	st, err := writeCmd(s, types.NewCreateTableCmd(dbName, tableName, meta), types.AppliedTTable)
	if err != nil {
		return nil, err
	}
	return st.Table, nil
}

// DropTable drops a table.
func DropTable(s IStore, dbName, tableName string) (*types.Change[types.Table], error) {
	st, err := writeCmd(s, types.NewDropTableCmd(dbName, tableName), types.AppliedTTable)
	if err != nil {
		return nil, err
	}
	return st.Table, nil
}

// ExpireKVs removes every expired generic KV value and returns how many were removed.
func ExpireKVs(s IStore) (uint64, error) {
	st, err := writeCmd(s, types.NewExpireKVsCmd(), types.AppliedTExpired)
	if err != nil {
		return 0, err
	}
	return st.Expired, nil
}
