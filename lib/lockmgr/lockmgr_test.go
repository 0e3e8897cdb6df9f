package lockmgr

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*lockMgrImpl, store.IStore) {
	t.Helper()
	sm, err := statemachine.Open(statemachine.Config{Path: filepath.Join(t.TempDir(), "lock.db"), NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })
	s, err := lstore.NewLocalStore(sm)
	require.NoError(t, err)
	return NewLockManager(s).(*lockMgrImpl), s
}

func TestLockManager(t *testing.T) {
	lm, _ := newTestManager(t)

	ok, owner, err := lm.AcquireLock("a", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, owner, ownerIDBytes)

	t.Run("SecondAcquireFails", func(t *testing.T) {
		ok, other, err := lm.AcquireLock("a", 0)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, other)
	})

	t.Run("ReleaseByOtherFails", func(t *testing.T) {
		ok, err := lm.ReleaseLock("a", []byte("someone else"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ReleaseByOwner", func(t *testing.T) {
		ok, err := lm.ReleaseLock("a", owner)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, _, err = lm.AcquireLock("a", 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ReleaseMissingLock", func(t *testing.T) {
		ok, err := lm.ReleaseLock("never", owner)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestLockExpires(t *testing.T) {
	lm, s := newTestManager(t)

	// a lock taken long ago with a one second timeout is already expired
	lm.now = func() time.Time { return time.Now().Add(-time.Hour) }
	ok, first, err := lm.AcquireLock("b", 1)
	require.NoError(t, err)
	require.True(t, ok)

	v, err := s.GetKV(KeyPrefix + "b")
	require.NoError(t, err)
	assert.Nil(t, v)

	lm.now = time.Now
	ok, second, err := lm.AcquireLock("b", 60)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first, second)

	ok, err = lm.ReleaseLock("b", first)
	require.NoError(t, err)
	assert.False(t, ok, "the expired owner must not release the new lock")
}
