package store_test

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/store/lstore"
	"github.com/admariner/datafuse/lib/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type maintainedStore struct {
	store.IStore
	calls atomic.Int32
}

func (m *maintainedStore) Maintain() error {
	m.calls.Add(1)
	return nil
}

func newTestStore(t *testing.T) store.IStore {
	t.Helper()
	sm, err := statemachine.Open(statemachine.Config{Path: filepath.Join(t.TempDir(), "meta.db"), NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	s, err := lstore.NewLocalStore(sm)
	require.NoError(t, err)
	return s
}

func TestSweeper(t *testing.T) {
	s := &maintainedStore{IStore: newTestStore(t)}

	_, err := store.UpsertKV(s, "gone", types.MatchAny(), types.OpUpdate([]byte("x")), &types.KVMeta{ExpireAt: 1})
	require.NoError(t, err)
	_, err = store.UpsertKV(s, "kept", types.MatchAny(), types.OpUpdate([]byte("y")), nil)
	require.NoError(t, err)

	var leader atomic.Bool
	sw := store.NewSweeper(s, time.Hour, leader.Load)

	t.Run("FollowerDoesNothing", func(t *testing.T) {
		sw.Sweep()
		assert.Equal(t, int32(0), s.calls.Load())
	})

	t.Run("LeaderSweeps", func(t *testing.T) {
		leader.Store(true)
		sw.Sweep()
		assert.Equal(t, int32(1), s.calls.Load())

		pairs, err := s.PrefixListKV("")
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, "kept", pairs[0].Key)
	})

	t.Run("StartStop", func(t *testing.T) {
		bg := store.NewSweeper(s, 10*time.Millisecond, nil)
		bg.Start()
		assert.Eventually(t, func() bool { return s.calls.Load() > 1 }, time.Second, 5*time.Millisecond)
		bg.Stop()
		bg.Stop()
	})
}

func TestErrorCodes(t *testing.T) {
	err := store.NewError(store.RetCRejected, "boom")
	assert.Equal(t, "StoreError (code Rejected): boom", err.Error())
}
