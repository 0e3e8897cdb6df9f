package statemachine

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillTestSM(h *harness) {
	h.apply(types.NewAddFileCmd("f1", "v1"))
	h.apply(types.NewAddNodeCmd(1, types.Node{Name: "n1", Address: "a:1"}))
	h.apply(types.NewCreateDatabaseCmd("db", "default"))
	h.apply(types.NewCreateTableCmd("db", "t", types.TableMeta{TableEngine: "parquet"}))
	h.apply(types.NewUpsertKVCmd("k", types.MatchAny(), types.OpUpdate([]byte("v")), nil))
	h.applyEntry(types.LogEntry{TxID: &types.TxID{Client: "c", Serial: 1}, Time: testNow, Cmd: types.NewIncrSeqCmd("s")})
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := openTestSM(t, Config{})
	fillTestSM(src)

	membership := types.Membership{Members: []uint64{1}}
	_, err := src.sm.Apply(types.NewConfigChangeEntry(src.nextID(), membership))
	require.NoError(t, err)

	snap, err := src.sm.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, types.LogID{Term: 1, Index: 7}, snap.Meta.LastApplied)
	assert.Equal(t, membership, snap.Meta.Membership)
	assert.Regexp(t, `^1-7-\d+$`, snap.Meta.SnapshotID)

	var buf bytes.Buffer
	_, err = snap.WriteTo(&buf)
	require.NoError(t, err)
	serialized, err := snap.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(serialized), buf.String())
	srcKVs, err := snap.KVs()
	require.NoError(t, err)
	require.NoError(t, snap.Close())

	dst := openTestSM(t, Config{})
	dst.apply(types.NewSetFileCmd("stale", "gone"))
	require.NoError(t, dst.sm.InstallSnapshotData(buf.Bytes()))
	assert.Equal(t, ID{Epoch: 1, Version: 1}, dst.sm.ID())

	// the installed tree holds exactly the pairs of the source snapshot
	dstSnap, err := dst.sm.Snapshot()
	require.NoError(t, err)
	dstKVs, err := dstSnap.KVs()
	require.NoError(t, err)
	require.NoError(t, dstSnap.Close())
	assert.Equal(t, srcKVs, dstKVs)

	last, err := dst.sm.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, types.LogID{Term: 1, Index: 7}, last)

	stale, err := dst.sm.GetFile("stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	f, err := dst.sm.GetFile("f1")
	require.NoError(t, err)
	assert.Equal(t, strPtr("v1"), f)

	wantDBs, err := src.sm.GetDatabases()
	require.NoError(t, err)
	gotDBs, err := dst.sm.GetDatabases()
	require.NoError(t, err)
	assert.Equal(t, wantDBs, gotDBs)

	serial, resp, err := dst.sm.GetClientLastResp("c")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), serial)
	assert.Equal(t, types.AppliedSeq(1), *resp)

	// both replicas continue identically
	dst.index = src.index
	assert.Equal(t, src.apply(types.NewIncrSeqCmd(SeqTableID)), dst.apply(types.NewIncrSeqCmd(SeqTableID)))
}

func TestSnapshotIsPointInTime(t *testing.T) {
	h := openTestSM(t, Config{})
	h.apply(types.NewSetFileCmd("before", "1"))

	snap, err := h.sm.Snapshot()
	require.NoError(t, err)
	defer snap.Close()

	h.apply(types.NewSetFileCmd("after", "2"))

	kvs, err := snap.KVs()
	require.NoError(t, err)
	for _, kv := range kvs {
		assert.NotEqual(t, ksFiles.Key("after"), kv[0])
	}
	assert.Contains(t, kvs, [2][]byte{ksFiles.Key("before"), []byte(`"1"`)})
}

func TestInstallConflict(t *testing.T) {
	h := openTestSM(t, Config{})
	snap := &SerializableSnapshot{}

	require.NoError(t, h.sm.writeID(ID{Epoch: 1, Version: 2}))
	err := h.sm.InstallSnapshot(snap)
	var conflict *InstallConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "another snapshot install is not finished yet: 1 2", err.Error())

	require.NoError(t, h.sm.writeID(ID{}))
	require.NoError(t, h.sm.InstallSnapshot(snap))
	assert.Equal(t, ID{Epoch: 1, Version: 1}, h.sm.ID())

	loaded, err := h.sm.loadID()
	require.NoError(t, err)
	assert.Equal(t, ID{Epoch: 1, Version: 1}, loaded)
}

func TestOpenDiscardsUnfinishedInstall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sm.db")
	h := openTestSM(t, Config{Path: path})
	h.apply(types.NewSetFileCmd("kept", "yes"))

	// simulate a crash in the middle of an install
	require.NoError(t, h.sm.writeID(ID{Epoch: 0, Version: 1}))
	partial, err := h.sm.db.OpenTree(treeName(1))
	require.NoError(t, err)
	require.NoError(t, partial.Update(func(tx *db.Txn) error {
		return tx.Put(ksFiles.Key("partial"), []byte(`"x"`))
	}))
	require.NoError(t, h.sm.Close())

	s, err := Open(Config{Path: path, NoSync: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, ID{}, s.ID())
	ok, err := s.db.HasTree(treeName(1))
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := s.GetFile("kept")
	require.NoError(t, err)
	assert.Equal(t, strPtr("yes"), v)
}
