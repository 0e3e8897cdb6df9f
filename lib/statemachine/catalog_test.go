package statemachine

import (
	"testing"

	"github.com/admariner/datafuse/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	h := openTestSM(t, Config{})
	metaVersion := func() uint64 {
		v, err := h.sm.GetDatabaseMetaVersion()
		require.NoError(t, err)
		return v
	}

	db1 := types.Database{DatabaseID: 1, DatabaseEngine: "default", Tables: map[string]uint64{}}

	t.Run("CreateDatabase", func(t *testing.T) {
		st := h.apply(types.NewCreateDatabaseCmd("db1", "default"))
		assert.Equal(t, types.AppliedDatabase(nil, &db1), st)
		assert.Equal(t, uint64(1), metaVersion())
	})

	t.Run("CreateExistingDatabase", func(t *testing.T) {
		st := h.apply(types.NewCreateDatabaseCmd("db1", "other"))
		assert.Equal(t, types.AppliedDatabase(&db1, &db1), st)
		assert.Equal(t, uint64(1), metaVersion())
	})

	meta := types.TableMeta{Schema: []byte(`{"fields":[]}`), TableEngine: "parquet", TableOptions: map[string]string{"a": "b"}}
	t1 := types.Table{TableID: 1, TableName: "t1", DatabaseID: 1, DBName: "db1", TableMeta: meta}

	t.Run("CreateTable", func(t *testing.T) {
		st := h.apply(types.NewCreateTableCmd("db1", "t1", meta))
		assert.Equal(t, types.AppliedTable(nil, &t1), st)
		assert.Equal(t, uint64(2), metaVersion())

		d, err := h.sm.GetDatabase("db1")
		require.NoError(t, err)
		assert.Equal(t, map[string]uint64{"t1": 1}, d.Tables)

		got, err := h.sm.GetTable(1)
		require.NoError(t, err)
		assert.Equal(t, &t1, got)
	})

	t.Run("CreateExistingTable", func(t *testing.T) {
		st := h.apply(types.NewCreateTableCmd("db1", "t1", types.TableMeta{}))
		assert.Equal(t, types.AppliedTable(&t1, &t1), st)
		assert.Equal(t, uint64(2), metaVersion())
	})

	t.Run("CreateTableInUnknownDatabase", func(t *testing.T) {
		st := h.apply(types.NewCreateTableCmd("nope", "t", meta))
		require.Equal(t, types.AppliedTError, st.Type)
		assert.Equal(t, types.ErrCodeUnknownDatabase, st.Err.Code)
		assert.Equal(t, uint64(2), metaVersion())

		seq, err := h.sm.GetSeq(SeqTableID)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), seq, "a rejected command must not allocate ids")
	})

	t.Run("DropTable", func(t *testing.T) {
		st := h.apply(types.NewDropTableCmd("db1", "t1"))
		assert.Equal(t, types.AppliedTable(&t1, nil), st)
		assert.Equal(t, uint64(3), metaVersion())

		st = h.apply(types.NewDropTableCmd("db1", "t1"))
		assert.Equal(t, types.AppliedTable(nil, nil), st)
		st = h.apply(types.NewDropTableCmd("nope", "t1"))
		assert.Equal(t, types.AppliedTable(nil, nil), st)
		assert.Equal(t, uint64(3), metaVersion())
	})

	t.Run("DropDatabase", func(t *testing.T) {
		h.apply(types.NewCreateDatabaseCmd("db2", "default"))
		h.apply(types.NewCreateTableCmd("db2", "t2", meta))

		dbs, err := h.sm.GetDatabases()
		require.NoError(t, err)
		assert.Len(t, dbs, 2)
		tableID := dbs["db2"].Tables["t2"]
		before, err := h.sm.GetDatabaseMetaVersion()
		require.NoError(t, err)

		st := h.apply(types.NewDropDatabaseCmd("db2"))
		require.Equal(t, types.AppliedTDatabase, st.Type)
		assert.NotNil(t, st.Database.Prev)
		assert.Nil(t, st.Database.Result)

		after, err := h.sm.GetDatabaseMetaVersion()
		require.NoError(t, err)
		assert.Equal(t, before+1, after)

		// tables of a dropped database are dropped with it
		got, err := h.sm.GetTable(tableID)
		require.NoError(t, err)
		assert.Nil(t, got)

		st = h.apply(types.NewDropDatabaseCmd("db2"))
		assert.Equal(t, types.AppliedDatabase(nil, nil), st)

		// a recreated database starts without tables
		h.apply(types.NewCreateDatabaseCmd("db2", "default"))
		recreated, err := h.sm.GetDatabase("db2")
		require.NoError(t, err)
		require.NotNil(t, recreated)
		assert.Empty(t, recreated.Tables)
	})
}
