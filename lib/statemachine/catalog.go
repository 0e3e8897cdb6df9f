package statemachine

import (
	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Catalog Commands
// --------------------------------------------------------------------------

// createDatabase creates name if absent and bumps the catalog version.
// An existing database is returned unchanged as (existing, existing).
func createDatabase(tx *db.Txn, name, engine string) (types.AppliedState, error) {
	prev, err := ksDatabases.Get(tx, name)
	if err != nil {
		return types.AppliedState{}, err
	}
	if prev != nil {
		return types.AppliedDatabase(prev, prev), nil
	}

	id, err := incrSeq(tx, SeqDatabaseID)
	if err != nil {
		return types.AppliedState{}, err
	}
	if _, err := incrSeq(tx, SeqDatabaseMetaID); err != nil {
		return types.AppliedState{}, err
	}

	database := types.Database{DatabaseID: id, DatabaseEngine: engine, Tables: map[string]uint64{}}
	if _, err := ksDatabases.Insert(tx, name, database); err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedDatabase(nil, &database), nil
}

// dropDatabase removes name together with its tables.
func dropDatabase(tx *db.Txn, name string) (types.AppliedState, error) {
	prev, err := ksDatabases.Remove(tx, name)
	if err != nil || prev == nil {
		return types.AppliedDatabase(nil, nil), err
	}
	for _, tableID := range prev.Tables {
		if _, err := ksTables.Remove(tx, tableID); err != nil {
			return types.AppliedState{}, err
		}
	}
	if _, err := incrSeq(tx, SeqDatabaseMetaID); err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedDatabase(prev, nil), nil
}

// createTable registers a table in an existing database. An existing table is
// returned unchanged as (existing, existing). Creating a table in an unknown
// database is rejected.
func createTable(tx *db.Txn, dbName, tableName string, meta types.TableMeta) (types.AppliedState, error) {
	database, err := ksDatabases.Get(tx, dbName)
	if err != nil {
		return types.AppliedState{}, err
	}
	if database == nil {
		return types.AppliedState{}, types.NewCmdError(types.ErrCodeUnknownDatabase, "database not found: %s", dbName)
	}

	if id, ok := database.Tables[tableName]; ok {
		prev, err := ksTables.Get(tx, id)
		if err != nil {
			return types.AppliedState{}, err
		}
		return types.AppliedTable(prev, prev), nil
	}

	id, err := incrSeq(tx, SeqTableID)
	if err != nil {
		return types.AppliedState{}, err
	}
	if _, err := incrSeq(tx, SeqDatabaseMetaID); err != nil {
		return types.AppliedState{}, err
	}

	table := types.Table{
		TableID:    id,
		TableName:  tableName,
		DatabaseID: database.DatabaseID,
		DBName:     dbName,
		TableMeta:  meta,
	}
	if database.Tables == nil {
		database.Tables = map[string]uint64{}
	}
	database.Tables[tableName] = id

	if _, err := ksDatabases.Insert(tx, dbName, *database); err != nil {
		return types.AppliedState{}, err
	}
	if _, err := ksTables.Insert(tx, id, table); err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedTable(nil, &table), nil
}

// dropTable removes a table. Unknown databases or tables result in (nil, nil).
func dropTable(tx *db.Txn, dbName, tableName string) (types.AppliedState, error) {
	database, err := ksDatabases.Get(tx, dbName)
	if err != nil {
		return types.AppliedState{}, err
	}
	if database == nil {
		return types.AppliedTable(nil, nil), nil
	}
	id, ok := database.Tables[tableName]
	if !ok {
		return types.AppliedTable(nil, nil), nil
	}

	prev, err := ksTables.Remove(tx, id)
	if err != nil {
		return types.AppliedState{}, err
	}
	delete(database.Tables, tableName)
	if _, err := ksDatabases.Insert(tx, dbName, *database); err != nil {
		return types.AppliedState{}, err
	}
	if _, err := incrSeq(tx, SeqDatabaseMetaID); err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedTable(prev, nil), nil
}

// --------------------------------------------------------------------------
// Catalog Reads
// --------------------------------------------------------------------------

// GetDatabase returns the database called name, or nil.
func (s *StateMachine) GetDatabase(name string) (*types.Database, error) {
	var d *types.Database
	err := s.view(func(tx *db.Txn) error {
		var err error
		d, err = ksDatabases.Get(tx, name)
		return err
	})
	return d, err
}

// GetDatabases returns all databases by name.
func (s *StateMachine) GetDatabases() (map[string]types.Database, error) {
	out := map[string]types.Database{}
	err := s.view(func(tx *db.Txn) error {
		return ksDatabases.Range(tx, func(name string, d types.Database) error {
			out[name] = d
			return nil
		})
	})
	return out, err
}

// GetTable returns the table with the given id, or nil.
func (s *StateMachine) GetTable(id uint64) (*types.Table, error) {
	var t *types.Table
	err := s.view(func(tx *db.Txn) error {
		var err error
		t, err = ksTables.Get(tx, id)
		return err
	})
	return t, err
}

// GetDatabaseMetaVersion returns the catalog version. It grows with every
// catalog change.
func (s *StateMachine) GetDatabaseMetaVersion() (uint64, error) {
	return s.GetSeq(SeqDatabaseMetaID)
}
