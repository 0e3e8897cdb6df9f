package dstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/store/dstore/internal"
	"github.com/admariner/datafuse/lib/types"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the concrete implementation of the distributed store.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh        *dragonboat.NodeHost
	shardID   uint64
	replicaID uint64
	cs        *client.Session
	timeout   time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID, replicaID uint64, timeout time.Duration) store.IStore {
	return &storeImpl{
		nh:        nh,
		shardID:   shardID,
		replicaID: replicaID,
		cs:        nh.GetNoOPSession(shardID),
		timeout:   timeout,
	}
}

// IsLeader reports whether this replica currently leads the shard.
func (s *storeImpl) IsLeader() bool {
	leaderID, _, valid, err := s.nh.GetLeaderID(s.shardID)
	return err == nil && valid && leaderID == s.replicaID
}

// IsLeaderFunc returns the leadership check of a store created by NewDistributedStore.
func IsLeaderFunc(s store.IStore) func() bool {
	if d, ok := s.(*storeImpl); ok {
		return d.IsLeader
	}
	return nil
}

// term returns the term of the current leader, 0 if unknown.
func (s *storeImpl) term() uint64 {
	_, term, valid, err := s.nh.GetLeaderID(s.shardID)
	if err != nil || !valid {
		return 0
	}
	return term
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write proposes a serialized Command via SyncPropose and decodes the applied state.
func (s *storeImpl) write(cmd internal.Command) (types.AppliedState, error) {
	var applied types.AppliedState
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)

		res, err := s.nh.SyncPropose(ctx, s.cs, cmd.Serialize())
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return applied, store.NewError(store.RetCInternalError, err.Error())
		}
		code := store.RetCode(res.Value)
		if code != store.RetCSuccess && code != store.RetCRejected {
			return applied, store.NewError(code, string(res.Data))
		}
		if err := json.Unmarshal(res.Data, &applied); err != nil {
			return applied, store.NewError(store.RetCInternalError, fmt.Sprintf("decode applied state: %v", err))
		}
		return applied, nil
	}
	return applied, store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function queries the statemachine
// and attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragonboat) by default to Query the state machine.
// If linearizability is not required, the stale parameter can be set to true to use the faster StaleRead function.
//
// Is the read operation fails due to a system busy error, the function retries up to 5 times.
//
// It returns the response of type R and a error (nil on success).
func read[R any](r *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		// Query the state machine, use StaleRead if stale is set otherwise use SyncRead (default)
		if stale {
			res, err = r.nh.StaleRead(r.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			res, err = r.nh.SyncRead(ctx, r.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(r.timeout / 10)
			continue
		}

		if err != nil {
			var se *store.Error
			if errors.As(err, &se) {
				return zero, se
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

// --------------------------------------------------------------------------
// Membership
// --------------------------------------------------------------------------

// Maintain records the current raft membership in the state machine if it
// changed since the last recorded one. It is run by the sweeper on the leader.
func (s *storeImpl) Maintain() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	m, err := s.nh.SyncGetShardMembership(ctx, s.shardID)
	cancel()
	if err != nil {
		return err
	}

	members := make([]uint64, 0, len(m.Nodes))
	for id := range m.Nodes {
		members = append(members, id)
	}
	slices.Sort(members)

	recorded, err := s.GetMembership()
	if err != nil {
		return err
	}
	if recorded != nil && slices.Equal(recorded.Members, members) {
		return nil
	}

	cmd, err := internal.NewConfigChangeCommand(s.term(), types.Membership{Members: members})
	if err != nil {
		return err
	}
	log.Infof("[shard %d] recording membership %v", s.shardID, members)
	_, err = s.write(cmd)
	return err
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Write(entry types.LogEntry) (types.AppliedState, error) {
	if entry.Time == 0 {
		entry.Time = uint64(time.Now().Unix())
	}
	cmd, err := internal.NewNormalCommand(s.term(), entry)
	if err != nil {
		return types.AppliedState{}, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return s.write(cmd)
}

func (s *storeImpl) GetKV(key string) (*types.SeqValue, error) {
	return read[*types.SeqValue](s, internal.Query{Type: internal.QueryTGetKV, Key: key}, false)
}

func (s *storeImpl) MGetKV(keys []string) ([]*types.SeqValue, error) {
	return read[[]*types.SeqValue](s, internal.Query{Type: internal.QueryTMGetKV, Keys: keys}, false)
}

func (s *storeImpl) PrefixListKV(prefix string) ([]types.KVPair, error) {
	return read[[]types.KVPair](s, internal.Query{Type: internal.QueryTPrefixListKV, Key: prefix}, false)
}

func (s *storeImpl) GetFile(key string) (*string, error) {
	return read[*string](s, internal.Query{Type: internal.QueryTGetFile, Key: key}, false)
}

func (s *storeImpl) ListFiles(prefix string) ([]string, error) {
	return read[[]string](s, internal.Query{Type: internal.QueryTListFiles, Key: prefix}, false)
}

func (s *storeImpl) GetNode(id types.NodeID) (*types.Node, error) {
	return read[*types.Node](s, internal.Query{Type: internal.QueryTGetNode, ID: id}, false)
}

func (s *storeImpl) GetDatabase(name string) (*types.Database, error) {
	return read[*types.Database](s, internal.Query{Type: internal.QueryTGetDatabase, Key: name}, false)
}

func (s *storeImpl) GetDatabases() (map[string]types.Database, error) {
	return read[map[string]types.Database](s, internal.Query{Type: internal.QueryTGetDatabases}, false)
}

func (s *storeImpl) GetDatabaseMetaVersion() (uint64, error) {
	return read[uint64](s, internal.Query{Type: internal.QueryTGetDatabaseMetaVersion}, false)
}

func (s *storeImpl) GetTable(id uint64) (*types.Table, error) {
	return read[*types.Table](s, internal.Query{Type: internal.QueryTGetTable, ID: id}, false)
}

func (s *storeImpl) GetLastApplied() (types.LogID, error) {
	return read[types.LogID](s, internal.Query{Type: internal.QueryTGetLastApplied}, false)
}

func (s *storeImpl) GetMembership() (*types.Membership, error) {
	return read[*types.Membership](s, internal.Query{Type: internal.QueryTGetMembership}, false)
}

func (s *storeImpl) GetDBInfo() (db.Info, error) {
	return read[db.Info](
		s,
		internal.Query{Type: internal.QueryTGetDBInfo},
		true, // Note: allow for stale reads
	)
}
