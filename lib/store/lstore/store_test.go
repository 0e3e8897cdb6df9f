package lstore

import (
	"path/filepath"
	"testing"

	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, path string) (store.IStore, *statemachine.StateMachine) {
	t.Helper()
	sm, err := statemachine.Open(statemachine.Config{Path: path, NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	s, err := NewLocalStore(sm)
	require.NoError(t, err)
	return s, sm
}

func TestLocalStore(t *testing.T) {
	s, _ := openTestStore(t, filepath.Join(t.TempDir(), "meta.db"))

	t.Run("Sequences", func(t *testing.T) {
		for want := uint64(1); want <= 3; want++ {
			got, err := store.IncrSeq(s, "ids")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("Files", func(t *testing.T) {
		change, err := store.AddFile(s, "f", "v1")
		require.NoError(t, err)
		assert.True(t, change.Changed())

		change, err = store.AddFile(s, "f", "v2")
		require.NoError(t, err)
		assert.False(t, change.Changed())

		v, err := s.GetFile("f")
		require.NoError(t, err)
		assert.Equal(t, "v1", *v)
	})

	t.Run("KV", func(t *testing.T) {
		change, err := store.UpsertKV(s, "k", types.MatchExact(0), types.OpUpdate([]byte("v")), nil)
		require.NoError(t, err)
		require.NotNil(t, change.Result)

		got, err := s.GetKV("k")
		require.NoError(t, err)
		assert.Equal(t, change.Result, got)

		change, err = store.UpdateKVMeta(s, "k", types.MatchExact(got.Seq), &types.KVMeta{ExpireAt: 1})
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), change.Result.Value.Value)

		got, err = s.GetKV("k")
		require.NoError(t, err)
		assert.Nil(t, got, "value expired at unix time 1")

		n, err := store.ExpireKVs(s)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
	})

	t.Run("Catalog", func(t *testing.T) {
		_, err := store.CreateDatabase(s, "db", "default")
		require.NoError(t, err)
		change, err := store.CreateTable(s, "db", "t", types.TableMeta{})
		require.NoError(t, err)
		require.NotNil(t, change.Result)

		_, err = store.CreateTable(s, "missing", "t", types.TableMeta{})
		var storeErr *store.Error
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, store.RetCRejected, storeErr.Code)

		got, err := s.GetTable(change.Result.TableID)
		require.NoError(t, err)
		assert.Equal(t, "db", got.DBName)

		_, err = store.DropTable(s, "db", "t")
		require.NoError(t, err)
		_, err = store.DropDatabase(s, "db")
		require.NoError(t, err)
		dbs, err := s.GetDatabases()
		require.NoError(t, err)
		assert.Empty(t, dbs)
	})

	t.Run("Nodes", func(t *testing.T) {
		change, err := store.AddNode(s, 7, types.Node{Name: "n7", Address: "localhost:7"})
		require.NoError(t, err)
		assert.True(t, change.Changed())
		n, err := s.GetNode(7)
		require.NoError(t, err)
		assert.Equal(t, "n7", n.Name)
	})
}

func TestLocalStoreContinuesIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.db")
	s, sm := openTestStore(t, path)
	for i := 0; i < 3; i++ {
		_, err := store.IncrSeq(s, "x")
		require.NoError(t, err)
	}
	require.NoError(t, sm.Close())

	s, _ = openTestStore(t, path)
	last, err := s.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last.Index)

	_, err = store.IncrSeq(s, "x")
	require.NoError(t, err)
	last, err = s.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), last.Index)
}
