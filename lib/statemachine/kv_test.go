package statemachine

import (
	"testing"

	"github.com/admariner/datafuse/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sv(seq uint64, value string, meta *types.KVMeta) *types.SeqValue {
	return &types.SeqValue{Seq: seq, Value: types.KVValue{Meta: meta, Value: []byte(value)}}
}

func TestUpsertKV(t *testing.T) {
	h := openTestSM(t, Config{})

	tests := []struct {
		name string
		cmd  types.Cmd
		want types.AppliedState
	}{
		{
			name: "ExactZeroOnAbsentKeyCreates",
			cmd:  types.NewUpsertKVCmd("k", types.MatchExact(0), types.OpUpdate([]byte("a")), nil),
			want: types.AppliedKV(nil, sv(1, "a", nil)),
		},
		{
			name: "ExactZeroOnExistingKeyFails",
			cmd:  types.NewUpsertKVCmd("k", types.MatchExact(0), types.OpUpdate([]byte("b")), nil),
			want: types.AppliedKV(sv(1, "a", nil), sv(1, "a", nil)),
		},
		{
			name: "ExactSeqUpdates",
			cmd:  types.NewUpsertKVCmd("k", types.MatchExact(1), types.OpUpdate([]byte("b")), nil),
			want: types.AppliedKV(sv(1, "a", nil), sv(2, "b", nil)),
		},
		{
			name: "GEBelowFails",
			cmd:  types.NewUpsertKVCmd("k", types.MatchGE(3), types.OpUpdate([]byte("c")), nil),
			want: types.AppliedKV(sv(2, "b", nil), sv(2, "b", nil)),
		},
		{
			name: "GEMatches",
			cmd:  types.NewUpsertKVCmd("k", types.MatchGE(2), types.OpUpdate([]byte("c")), nil),
			want: types.AppliedKV(sv(2, "b", nil), sv(3, "c", nil)),
		},
		{
			name: "AsIsRefreshesMeta",
			cmd:  types.NewUpdateKVMetaCmd("k", types.MatchAny(), &types.KVMeta{ExpireAt: testNow + 100}),
			want: types.AppliedKV(sv(3, "c", nil), sv(4, "c", &types.KVMeta{ExpireAt: testNow + 100})),
		},
		{
			name: "AsIsOnAbsentKey",
			cmd:  types.NewUpdateKVMetaCmd("missing", types.MatchAny(), nil),
			want: types.AppliedKV(nil, nil),
		},
		{
			name: "DeleteWithWrongSeqFails",
			cmd:  types.NewUpsertKVCmd("k", types.MatchExact(1), types.OpDelete(), nil),
			want: types.AppliedKV(sv(4, "c", &types.KVMeta{ExpireAt: testNow + 100}), sv(4, "c", &types.KVMeta{ExpireAt: testNow + 100})),
		},
		{
			name: "Delete",
			cmd:  types.NewUpsertKVCmd("k", types.MatchAny(), types.OpDelete(), nil),
			want: types.AppliedKV(sv(4, "c", &types.KVMeta{ExpireAt: testNow + 100}), nil),
		},
		{
			name: "DeleteAbsent",
			cmd:  types.NewUpsertKVCmd("k", types.MatchAny(), types.OpDelete(), nil),
			want: types.AppliedKV(nil, nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.apply(tt.cmd))
		})
	}

	seq, err := h.sm.GetSeq(SeqGenericKV)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), seq)
}

func TestKVExpiry(t *testing.T) {
	h := openTestSM(t, Config{})

	expired := &types.KVMeta{ExpireAt: testNow - 1}
	live := &types.KVMeta{ExpireAt: testNow + 1}

	h.apply(types.NewUpsertKVCmd("p/expired", types.MatchAny(), types.OpUpdate([]byte("x")), expired))
	h.apply(types.NewUpsertKVCmd("p/live", types.MatchAny(), types.OpUpdate([]byte("y")), live))
	h.apply(types.NewUpsertKVCmd("p/forever", types.MatchAny(), types.OpUpdate([]byte("z")), nil))

	t.Run("ReadsHideExpiredValues", func(t *testing.T) {
		got, err := h.sm.GetKV("p/expired")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = h.sm.GetKV("p/live")
		require.NoError(t, err)
		assert.Equal(t, sv(2, "y", live), got)

		many, err := h.sm.MGetKV([]string{"p/forever", "p/expired", "nope"})
		require.NoError(t, err)
		assert.Equal(t, []*types.SeqValue{sv(3, "z", nil), nil, nil}, many)

		pairs, err := h.sm.PrefixListKV("p/")
		require.NoError(t, err)
		assert.Equal(t, []types.KVPair{
			{Key: "p/forever", Value: *sv(3, "z", nil)},
			{Key: "p/live", Value: *sv(2, "y", live)},
		}, pairs)
	})

	t.Run("ExpiredValueCountsAsAbsent", func(t *testing.T) {
		st := h.apply(types.NewUpsertKVCmd("p/expired", types.MatchExact(0), types.OpUpdate([]byte("new")), nil))
		assert.Equal(t, types.AppliedKV(nil, sv(4, "new", nil)), st)
	})

	t.Run("ExpireKVsUsesEntryTime", func(t *testing.T) {
		// at entry time testNow+2, p/live is expired as well
		st := h.applyEntry(types.LogEntry{Time: testNow + 2, Cmd: types.NewExpireKVsCmd()})
		assert.Equal(t, types.AppliedExpired(1), st)

		st = h.applyEntry(types.LogEntry{Time: testNow + 2, Cmd: types.NewExpireKVsCmd()})
		assert.Equal(t, types.AppliedExpired(0), st)

		pairs, err := h.sm.PrefixListKV("p/")
		require.NoError(t, err)
		assert.Len(t, pairs, 2)
	})

	t.Run("ZeroTimeDisablesExpiry", func(t *testing.T) {
		h.apply(types.NewUpsertKVCmd("old", types.MatchAny(), types.OpUpdate([]byte("v")), &types.KVMeta{ExpireAt: 1}))
		st := h.applyEntry(types.LogEntry{Cmd: types.NewUpsertKVCmd("old", types.MatchExact(0), types.OpUpdate([]byte("w")), nil)})
		assert.Equal(t, types.AppliedTKV, st.Type)
		assert.Equal(t, st.KV.Prev, st.KV.Result, "stored value must still count")
	})
}

func TestApplyCmd(t *testing.T) {
	h := openTestSM(t, Config{})

	st, err := h.sm.ApplyCmd(types.NewIncrSeqCmd("local"))
	require.NoError(t, err)
	assert.Equal(t, types.AppliedSeq(1), st)

	last, err := h.sm.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, types.LogID{}, last)
}
