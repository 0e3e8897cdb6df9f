package client

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/store/lstore"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackTransport hands requests directly to a server adapter.
// With duplicate set every request is delivered twice, like a retry after a lost response.
type loopbackTransport struct {
	store      store.IStore
	adapter    server.IRPCServerAdapter
	serializer serializer.IRPCSerializer
	duplicate  bool
}

func (l *loopbackTransport) Connect(common.ClientConfig) error { return nil }
func (l *loopbackTransport) Close() error                      { return nil }

func (l *loopbackTransport) Send(_ uint64, req []byte) ([]byte, error) {
	handle := func() ([]byte, error) {
		var msg common.Message
		if err := l.serializer.Deserialize(req, &msg); err != nil {
			return nil, err
		}
		return l.serializer.Serialize(*l.adapter.Handle(&msg, l.store))
	}
	if l.duplicate {
		if _, err := handle(); err != nil {
			return nil, err
		}
	}
	return handle()
}

func newLoopback(t *testing.T, adapter server.IRPCServerAdapter) *loopbackTransport {
	sm, err := statemachine.Open(statemachine.Config{Path: filepath.Join(t.TempDir(), "sm.db"), NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sm.Close() })

	s, err := lstore.NewLocalStore(sm)
	require.NoError(t, err)
	return &loopbackTransport{store: s, adapter: adapter, serializer: serializer.NewGOBSerializer()}
}

func TestRPCStore(t *testing.T) {
	lb := newLoopback(t, server.NewIStoreServerAdapter())
	s, err := NewRPCStore(1, common.ClientConfig{}, lb, lb.serializer)
	require.NoError(t, err)

	seq, err := store.IncrSeq(s, "ids")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	change, err := store.AddFile(s, "f/1", "v1")
	require.NoError(t, err)
	assert.True(t, change.Changed())

	value, err := s.GetFile("f/1")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "v1", *value)

	keys, err := s.ListFiles("f/")
	require.NoError(t, err)
	assert.Equal(t, []string{"f/1"}, keys)

	kv, err := s.GetKV("missing")
	require.NoError(t, err)
	assert.Nil(t, kv)

	last, err := s.GetLastApplied()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last.Index)
}

func TestRPCStoreRetriedWritesApplyOnce(t *testing.T) {
	lb := newLoopback(t, server.NewIStoreServerAdapter())
	lb.duplicate = true
	s, err := NewRPCStore(1, common.ClientConfig{}, lb, lb.serializer)
	require.NoError(t, err)

	for want := uint64(1); want <= 3; want++ {
		seq, err := store.IncrSeq(s, "ids")
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}
}

func TestRPCLockMgr(t *testing.T) {
	lb := newLoopback(t, server.NewLockManagerServerAdapter())
	locks, err := NewRPCLockMgr(2, common.ClientConfig{}, lb, lb.serializer)
	require.NoError(t, err)

	ok, owner, err := locks.AcquireLock("l", 30)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _, err = locks.AcquireLock("l", 30)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = locks.ReleaseLock("l", []byte("someone else"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = locks.ReleaseLock("l", owner)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestErrorResponse(t *testing.T) {
	// a lock adapter does not serve store requests
	lb := newLoopback(t, server.NewLockManagerServerAdapter())
	s, err := NewRPCStore(1, common.ClientConfig{}, lb, lb.serializer)
	require.NoError(t, err)

	_, err = s.GetKV("a")
	assert.Error(t, err)

	var buf bytes.Buffer
	WriteStats(&buf)
	assert.Contains(t, buf.String(), "rpc.getKV")
}
