package client

import (
	"encoding/json"
	"fmt"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/transport"
)

// NewRPCStore creates a new RPC store
// The function takes a shard ID, a config, a transport and a serializer as parameters
// It returns a store.IStore and an error
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	c := &rpcStore{}
	c.init(shardId, config, transport, serializer)
	return c, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// read sends a read request and decodes the JSON result into R
func read[R any](i *rpcStore, t common.MessageType, key string, keys []string, id uint64) (R, error) {
	var result R
	resp, err := i.invoke(common.NewReadRequest(t, key, keys, id))
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(resp.Value, &result); err != nil {
		return result, fmt.Errorf("RPC client - decode %s result: %w", t, err)
	}
	return result, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

// Write attaches a transaction id unless the caller set one, so that transport
// retries of the same request are applied once.
func (i *rpcStore) Write(entry types.LogEntry) (types.AppliedState, error) {
	if entry.TxID == nil {
		entry.TxID = i.nextTxID()
	}
	resp, err := i.invoke(common.NewWriteRequest(entry))
	if err != nil {
		return types.AppliedState{}, err
	}
	if resp.Applied == nil {
		return types.AppliedState{}, fmt.Errorf("RPC client - write response without result")
	}
	return *resp.Applied, nil
}

func (i *rpcStore) GetKV(key string) (*types.SeqValue, error) {
	return read[*types.SeqValue](i, common.MsgTGetKV, key, nil, 0)
}

func (i *rpcStore) MGetKV(keys []string) ([]*types.SeqValue, error) {
	return read[[]*types.SeqValue](i, common.MsgTMGetKV, "", keys, 0)
}

func (i *rpcStore) PrefixListKV(prefix string) ([]types.KVPair, error) {
	return read[[]types.KVPair](i, common.MsgTPrefixListKV, prefix, nil, 0)
}

func (i *rpcStore) GetFile(key string) (*string, error) {
	return read[*string](i, common.MsgTGetFile, key, nil, 0)
}

func (i *rpcStore) ListFiles(prefix string) ([]string, error) {
	return read[[]string](i, common.MsgTListFiles, prefix, nil, 0)
}

func (i *rpcStore) GetNode(id types.NodeID) (*types.Node, error) {
	return read[*types.Node](i, common.MsgTGetNode, "", nil, uint64(id))
}

func (i *rpcStore) GetDatabase(name string) (*types.Database, error) {
	return read[*types.Database](i, common.MsgTGetDatabase, name, nil, 0)
}

func (i *rpcStore) GetDatabases() (map[string]types.Database, error) {
	return read[map[string]types.Database](i, common.MsgTGetDatabases, "", nil, 0)
}

func (i *rpcStore) GetDatabaseMetaVersion() (uint64, error) {
	return read[uint64](i, common.MsgTGetDatabaseMetaVersion, "", nil, 0)
}

func (i *rpcStore) GetTable(id uint64) (*types.Table, error) {
	return read[*types.Table](i, common.MsgTGetTable, "", nil, id)
}

func (i *rpcStore) GetLastApplied() (types.LogID, error) {
	return read[types.LogID](i, common.MsgTGetLastApplied, "", nil, 0)
}

func (i *rpcStore) GetMembership() (*types.Membership, error) {
	return read[*types.Membership](i, common.MsgTGetMembership, "", nil, 0)
}

func (i *rpcStore) GetDBInfo() (db.Info, error) {
	return read[db.Info](i, common.MsgTGetDBInfo, "", nil, 0)
}
