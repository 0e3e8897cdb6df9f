package statemachine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNow uint64 = 1_000_000

// harness wraps a StateMachine and hands out increasing log ids.
type harness struct {
	t     *testing.T
	sm    *StateMachine
	index uint64
}

func openTestSM(t *testing.T, config Config) *harness {
	t.Helper()
	if config.Path == "" {
		config.Path = filepath.Join(t.TempDir(), "sm.db")
	}
	config.NoSync = true
	s, err := Open(config)
	require.NoError(t, err)
	s.clock = func() time.Time { return time.Unix(int64(testNow), 0) }
	t.Cleanup(func() { _ = s.Close() })
	return &harness{t: t, sm: s}
}

func (h *harness) nextID() types.LogID {
	h.index++
	return types.LogID{Term: 1, Index: h.index}
}

func (h *harness) apply(cmd types.Cmd) types.AppliedState {
	h.t.Helper()
	return h.applyEntry(types.LogEntry{Time: testNow, Cmd: cmd})
}

func (h *harness) applyEntry(entry types.LogEntry) types.AppliedState {
	h.t.Helper()
	st, err := h.sm.Apply(types.NewNormalEntry(h.nextID(), entry))
	require.NoError(h.t, err)
	return st
}

func strPtr(s string) *string { return &s }

func TestOpen(t *testing.T) {
	h := openTestSM(t, Config{})

	ok, err := h.sm.IsInitialized()
	require.NoError(t, err)
	assert.True(t, ok)

	last, err := h.sm.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, types.LogID{}, last)

	assert.Len(t, h.sm.Slots(), 3)
	assert.Equal(t, types.ReplicationMirror(1), h.sm.Replication())
	assert.Equal(t, ID{}, h.sm.ID())
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, uint64(defaultSlots), c.InitialSlots)
	assert.Equal(t, types.ReplicationMirror(defaultMirrorCount), c.Replication)
	assert.Equal(t, db.DefaultMmapSize, c.MmapSize)

	c = Config{MmapSize: 1 << 20}.withDefaults()
	assert.Equal(t, 1<<20, c.MmapSize)

	h := openTestSM(t, Config{MmapSize: 1 << 20})
	h.apply(types.NewSetFileCmd("f", "v"))
	f, err := h.sm.GetFile("f")
	require.NoError(t, err)
	assert.Equal(t, strPtr("v"), f)
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sm.db")
	h := openTestSM(t, Config{Path: path})
	h.apply(types.NewSetFileCmd("f", "v"))
	require.NoError(t, h.sm.Close())

	s, err := Open(Config{Path: path, NoSync: true})
	require.NoError(t, err)
	defer s.Close()

	v, err := s.GetFile("f")
	require.NoError(t, err)
	assert.Equal(t, strPtr("v"), v)

	last, err := s.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, types.LogID{Term: 1, Index: 1}, last)
}

func TestIncrSeq(t *testing.T) {
	h := openTestSM(t, Config{})

	for want := uint64(1); want <= 3; want++ {
		st := h.apply(types.NewIncrSeqCmd("foo"))
		assert.Equal(t, types.AppliedSeq(want), st)
	}
	assert.Equal(t, types.AppliedSeq(1), h.apply(types.NewIncrSeqCmd("bar")))

	seq, err := h.sm.GetSeq("foo")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq)
}

func TestFiles(t *testing.T) {
	h := openTestSM(t, Config{})

	st := h.apply(types.NewAddFileCmd("a", "x"))
	assert.Equal(t, types.AppliedFile(nil, strPtr("x")), st)

	st = h.apply(types.NewAddFileCmd("a", "y"))
	assert.Equal(t, types.AppliedFile(strPtr("x"), nil), st)

	st = h.apply(types.NewSetFileCmd("a", "y"))
	assert.Equal(t, types.AppliedFile(strPtr("x"), strPtr("y")), st)

	h.apply(types.NewAddFileCmd("ab", "z"))
	h.apply(types.NewAddFileCmd("b", "z"))

	keys, err := h.sm.ListFiles("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "ab"}, keys)
}

func TestNodes(t *testing.T) {
	h := openTestSM(t, Config{})
	n1 := types.Node{Name: "n1", Address: "127.0.0.1:1"}
	n2 := types.Node{Name: "n2", Address: "127.0.0.1:2"}

	st := h.apply(types.NewAddNodeCmd(1, n1))
	assert.Equal(t, types.AppliedNode(nil, &n1), st)

	st = h.apply(types.NewAddNodeCmd(1, n2))
	assert.Equal(t, types.AppliedNode(&n1, nil), st)

	got, err := h.sm.GetNode(1)
	require.NoError(t, err)
	assert.Equal(t, &n1, got)

	got, err = h.sm.GetNode(2)
	require.NoError(t, err)
	assert.Nil(t, got)

	st = h.apply(types.Cmd{Type: types.CmdTAddNode, NodeID: 3})
	assert.Equal(t, types.AppliedTError, st.Type)
}

func TestLastAppliedAndMembership(t *testing.T) {
	h := openTestSM(t, Config{})

	_, err := h.sm.Apply(types.NewBlankEntry(types.LogID{Term: 2, Index: 5}))
	require.NoError(t, err)

	membership := types.Membership{Members: []uint64{1, 2, 3}}
	st, err := h.sm.Apply(types.NewConfigChangeEntry(types.LogID{Term: 2, Index: 6}, membership))
	require.NoError(t, err)
	assert.Equal(t, types.AppliedNone(), st)

	// an older entry does not move last applied backwards
	_, err = h.sm.Apply(types.NewBlankEntry(types.LogID{Term: 1, Index: 3}))
	require.NoError(t, err)

	last, err := h.sm.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, types.LogID{Term: 2, Index: 6}, last)

	got, err := h.sm.GetMembership()
	require.NoError(t, err)
	assert.Equal(t, &membership, got)
}

func TestDedup(t *testing.T) {
	h := openTestSM(t, Config{})
	txid := &types.TxID{Client: "c1", Serial: 7}

	first := h.applyEntry(types.LogEntry{TxID: txid, Time: testNow, Cmd: types.NewIncrSeqCmd("s")})
	again := h.applyEntry(types.LogEntry{TxID: txid, Time: testNow, Cmd: types.NewIncrSeqCmd("s")})
	assert.Equal(t, types.AppliedSeq(1), first)
	assert.Equal(t, first, again)

	seq, err := h.sm.GetSeq("s")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq, "duplicate must not be applied")

	next := h.applyEntry(types.LogEntry{
		TxID: &types.TxID{Client: "c1", Serial: 8},
		Time: testNow,
		Cmd:  types.NewIncrSeqCmd("s"),
	})
	assert.Equal(t, types.AppliedSeq(2), next)

	serial, resp, err := h.sm.GetClientLastResp("c1")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), serial)
	assert.Equal(t, &next, resp)

	// the duplicate still advances last applied
	last, err := h.sm.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last.Index)
}

func TestDeterministicResults(t *testing.T) {
	cmds := []types.Cmd{
		types.NewCreateDatabaseCmd("db", "default"),
		types.NewCreateTableCmd("db", "t", types.TableMeta{TableEngine: "parquet"}),
		types.NewUpsertKVCmd("k", types.MatchAny(), types.OpUpdate([]byte("v")), &types.KVMeta{ExpireAt: testNow + 10}),
		types.NewCreateTableCmd("nodb", "t", types.TableMeta{}),
		types.NewAddNodeCmd(1, types.Node{Name: "n"}),
	}

	a := openTestSM(t, Config{})
	b := openTestSM(t, Config{})
	for _, cmd := range cmds {
		assert.Equal(t, a.apply(cmd), b.apply(cmd), cmd.String())
	}
}
