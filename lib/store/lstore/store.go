package lstore

import (
	"sync/atomic"
	"time"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
)

type storeImpl struct {
	sm    *statemachine.StateMachine
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance on top of sm.
// This store implementation is not distributed and only works on a single node.
// Entries are numbered by a local counter that continues after the last applied index.
func NewLocalStore(sm *statemachine.StateMachine) (store.IStore, error) {
	last, err := sm.GetLastApplied()
	if err != nil {
		return nil, err
	}
	s := &storeImpl{sm: sm}
	s.index.Store(last.Index)
	return s, nil
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Write(entry types.LogEntry) (types.AppliedState, error) {
	if entry.Time == 0 {
		entry.Time = uint64(time.Now().Unix())
	}
	id := types.LogID{Index: s.incAndGetIndex()}
	st, err := s.sm.Apply(types.NewNormalEntry(id, entry))
	if err != nil {
		return st, store.NewError(store.RetCInternalError, err.Error())
	}
	return st, nil
}

func (s *storeImpl) GetKV(key string) (*types.SeqValue, error) {
	return s.sm.GetKV(key)
}

func (s *storeImpl) MGetKV(keys []string) ([]*types.SeqValue, error) {
	return s.sm.MGetKV(keys)
}

func (s *storeImpl) PrefixListKV(prefix string) ([]types.KVPair, error) {
	return s.sm.PrefixListKV(prefix)
}

func (s *storeImpl) GetFile(key string) (*string, error) {
	return s.sm.GetFile(key)
}

func (s *storeImpl) ListFiles(prefix string) ([]string, error) {
	return s.sm.ListFiles(prefix)
}

func (s *storeImpl) GetNode(id types.NodeID) (*types.Node, error) {
	return s.sm.GetNode(id)
}

func (s *storeImpl) GetDatabase(name string) (*types.Database, error) {
	return s.sm.GetDatabase(name)
}

func (s *storeImpl) GetDatabases() (map[string]types.Database, error) {
	return s.sm.GetDatabases()
}

func (s *storeImpl) GetDatabaseMetaVersion() (uint64, error) {
	return s.sm.GetDatabaseMetaVersion()
}

func (s *storeImpl) GetTable(id uint64) (*types.Table, error) {
	return s.sm.GetTable(id)
}

func (s *storeImpl) GetLastApplied() (types.LogID, error) {
	return s.sm.GetLastApplied()
}

func (s *storeImpl) GetMembership() (*types.Membership, error) {
	return s.sm.GetMembership()
}

func (s *storeImpl) GetDBInfo() (db.Info, error) {
	return s.sm.Info()
}
