package server

import (
	"encoding/json"
	"testing"

	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	storeShard = 100
	lockShard  = 200
)

func newTestServer(t *testing.T) *RPCServer {
	s := NewRPCServer(common.ServerConfig{
		Shards: []common.ServerShard{
			{ShardID: storeShard, Type: common.ShardTypeLocalIStore},
			{ShardID: lockShard, Type: common.ShardTypeLocalILockManager},
		},
		DataDir:  t.TempDir(),
		NoSync:   true,
		LogLevel: "warn",
	}, http.NewHttpServerTransport(), serializer.NewJSONSerializer())
	require.NoError(t, s.init())
	t.Cleanup(func() { require.NoError(t, s.shutdown()) })
	return s
}

func call(t *testing.T, s *RPCServer, shardId uint64, req *common.Message) common.Message {
	data, err := s.serializer.Serialize(*req)
	require.NoError(t, err)

	var resp common.Message
	require.NoError(t, s.serializer.Deserialize(s.handle(shardId, data), &resp))
	return resp
}

func TestWriteAndRead(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, storeShard, common.NewWriteRequest(types.LogEntry{Cmd: types.NewIncrSeqCmd("ids")}))
	require.Empty(t, resp.Err)
	require.NotNil(t, resp.Applied)
	assert.Equal(t, types.AppliedSeq(1), *resp.Applied)

	resp = call(t, s, storeShard, common.NewWriteRequest(types.LogEntry{Cmd: types.NewCreateDatabaseCmd("db1", "local")}))
	require.Empty(t, resp.Err)

	resp = call(t, s, storeShard, common.NewReadRequest(common.MsgTGetDatabase, "db1", nil, 0))
	require.Empty(t, resp.Err)
	var database *types.Database
	require.NoError(t, json.Unmarshal(resp.Value, &database))
	require.NotNil(t, database)
	assert.Equal(t, "local", database.DatabaseEngine)

	resp = call(t, s, storeShard, common.NewReadRequest(common.MsgTGetKV, "missing", nil, 0))
	require.Empty(t, resp.Err)
	assert.Equal(t, "null", string(resp.Value))
}

func TestLockShard(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, lockShard, common.NewAcquireRequest("l1", 0))
	require.Empty(t, resp.Err)
	require.True(t, resp.Ok)
	owner := resp.Value

	resp = call(t, s, lockShard, common.NewAcquireRequest("l1", 0))
	assert.False(t, resp.Ok)

	resp = call(t, s, lockShard, common.NewReleaseRequest("l1", owner))
	assert.True(t, resp.Ok)

	// store requests are not served by lock shards
	resp = call(t, s, lockShard, common.NewReadRequest(common.MsgTGetKV, "l1", nil, 0))
	assert.Equal(t, common.MsgTError, resp.MsgType)
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, 999, common.NewReadRequest(common.MsgTGetKV, "a", nil, 0))
	assert.Equal(t, common.MsgTError, resp.MsgType)
	assert.Contains(t, resp.Err, "not found")

	resp = call(t, s, storeShard, &common.Message{MsgType: common.MsgTWrite})
	assert.Equal(t, common.MsgTError, resp.MsgType)

	var msg common.Message
	require.NoError(t, s.serializer.Deserialize(s.handle(storeShard, []byte("{not json")), &msg))
	assert.Equal(t, common.MsgTError, msg.MsgType)
}

func TestServersShareProcess(t *testing.T) {
	// every server installs the loggers, which must work more than once per process
	first := newTestServer(t)
	second := newTestServer(t)

	for _, s := range []*RPCServer{first, second} {
		resp := call(t, s, storeShard, common.NewWriteRequest(types.LogEntry{Cmd: types.NewIncrSeqCmd("seq")}))
		require.Empty(t, resp.Err)
		require.NotNil(t, resp.Applied)
		assert.Equal(t, types.AppliedSeq(1), *resp.Applied)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	s := NewRPCServer(common.ServerConfig{
		Shards:   []common.ServerShard{{ShardID: storeShard, Type: common.ShardTypeLocalIStore}},
		DataDir:  t.TempDir(),
		LogLevel: "loud",
	}, http.NewHttpServerTransport(), serializer.NewJSONSerializer())
	assert.Error(t, s.init())
	assert.NoError(t, s.shutdown())
}
