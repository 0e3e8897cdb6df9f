package dstore

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/store/dstore/internal"
	"github.com/admariner/datafuse/lib/types"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// ConfigFactory returns the state machine configuration of a replica.
type ConfigFactory func(shardID, replicaID uint64) statemachine.Config

// MetaStateMachine adapts statemachine.StateMachine to Dragonboat's IOnDiskStateMachine.
// The state machine persists its own applied index, so Dragonboat only replays
// entries after the index returned by Open.
type MetaStateMachine struct {
	replicaID uint64
	shardID   uint64
	config    statemachine.Config
	sm        *statemachine.StateMachine

	// lastTerm is the term of the last applied entry. Terms stamped by
	// proposers are raised to it, so applied log ids never go back in term.
	lastTerm uint64
}

// CreateStateMachineFactory returns a function that can be used by dragonboat to create a new state machine for a node host
// The factory pattern is used to enable the caller to place the data of every replica.
func CreateStateMachineFactory(factory ConfigFactory) sm.CreateOnDiskStateMachineFunc {
	return func(shardID uint64, replicaID uint64) sm.IOnDiskStateMachine {
		return &MetaStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			config:    factory(shardID, replicaID),
		}
	}
}

// Open opens the state machine and returns the last applied index.
func (fsm *MetaStateMachine) Open(_ <-chan struct{}) (uint64, error) {
	s, err := statemachine.Open(fsm.config)
	if err != nil {
		return 0, err
	}
	fsm.sm = s
	last, err := s.GetLastApplied()
	if err != nil {
		return 0, err
	}
	fsm.lastTerm = last.Term
	log.Infof("[shard %d, replica %d] opened state machine at %s, last applied %s", fsm.shardID, fsm.replicaID, fsm.config.Path, last)
	return last.Index, nil
}

// Lookup handles read-only queries by mapping each Query to the corresponding state machine read.
func (fsm *MetaStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse Query into Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	switch q.Type {
	case internal.QueryTGetKV:
		return fsm.sm.GetKV(q.Key)
	case internal.QueryTMGetKV:
		return fsm.sm.MGetKV(q.Keys)
	case internal.QueryTPrefixListKV:
		return fsm.sm.PrefixListKV(q.Key)
	case internal.QueryTGetFile:
		return fsm.sm.GetFile(q.Key)
	case internal.QueryTListFiles:
		return fsm.sm.ListFiles(q.Key)
	case internal.QueryTGetNode:
		return fsm.sm.GetNode(q.ID)
	case internal.QueryTGetDatabase:
		return fsm.sm.GetDatabase(q.Key)
	case internal.QueryTGetDatabases:
		return fsm.sm.GetDatabases()
	case internal.QueryTGetDatabaseMetaVersion:
		return fsm.sm.GetDatabaseMetaVersion()
	case internal.QueryTGetTable:
		return fsm.sm.GetTable(q.ID)
	case internal.QueryTGetLastApplied:
		return fsm.sm.GetLastApplied()
	case internal.QueryTGetMembership:
		return fsm.sm.GetMembership()
	case internal.QueryTGetDBInfo:
		return fsm.sm.Info()
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %s", q.Type))
	}
}

// Update applies committed entries. Every entry is applied, even a malformed one
// (as a blank entry), so the applied index always advances. A storage failure is
// returned as error, which stops the replica.
func (fsm *MetaStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	for idx, e := range entries {
		entry, decodeErr := decodeEntry(e)
		if decodeErr != nil {
			log.Warningf("[shard %d] entry %d: %v", fsm.shardID, e.Index, decodeErr)
			entry = types.NewBlankEntry(types.LogID{Index: e.Index})
		}
		entry.LogID.Term = max(entry.LogID.Term, fsm.lastTerm)
		fsm.lastTerm = entry.LogID.Term

		applied, err := fsm.sm.Apply(entry)
		if err != nil {
			return entries, err
		}

		if decodeErr != nil {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte(decodeErr.Error())}
			continue
		}

		data, err := json.Marshal(applied)
		if err != nil {
			return entries, err
		}
		code := store.RetCSuccess
		if applied.Type == types.AppliedTError {
			code = store.RetCRejected
		}
		entries[idx].Result = sm.Result{Value: uint64(code), Data: data}
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		log.Infof("State machine took long to update. Batch updated %d entries, took %.2fms", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

func decodeEntry(e sm.Entry) (types.Entry, error) {
	if len(e.Cmd) == 0 {
		return types.NewBlankEntry(types.LogID{Index: e.Index}), nil
	}
	cmd := internal.Command{}
	if err := cmd.Deserialize(e.Cmd); err != nil {
		return types.Entry{}, fmt.Errorf("failed to deserialize command: %w", err)
	}
	return cmd.ToEntry(e.Index)
}

// Sync flushes the state machine to disk.
func (fsm *MetaStateMachine) Sync() error {
	return fsm.sm.Sync()
}

// PrepareSnapshot opens a point-in-time view of the state machine. The view is
// written by SaveSnapshot while updates continue.
func (fsm *MetaStateMachine) PrepareSnapshot() (interface{}, error) {
	return fsm.sm.Snapshot()
}

// SaveSnapshot streams the view prepared by PrepareSnapshot to the writer.
func (fsm *MetaStateMachine) SaveSnapshot(ctx interface{}, writer io.Writer, done <-chan struct{}) error {
	snap, ok := ctx.(*statemachine.Snapshot)
	if !ok {
		return fmt.Errorf("invalid snapshot context type: %T", ctx)
	}
	defer snap.Close()

	select {
	case <-done:
		return sm.ErrSnapshotStopped
	default:
	}

	if _, err := snap.WriteTo(writer); err != nil {
		return err
	}
	log.Infof("[shard %d] saved snapshot %s", fsm.shardID, snap.Meta.SnapshotID)
	return nil
}

// RecoverFromSnapshot replaces the state machine content with the snapshot.
func (fsm *MetaStateMachine) RecoverFromSnapshot(r io.Reader, done <-chan struct{}) error {
	snap, err := statemachine.ReadSnapshot(r)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return sm.ErrSnapshotStopped
	default:
	}
	if err := fsm.sm.InstallSnapshot(snap); err != nil {
		return err
	}
	last, err := fsm.sm.GetLastApplied()
	if err != nil {
		return err
	}
	fsm.lastTerm = last.Term
	return nil
}

// Close performs any necessary cleanup.
func (fsm *MetaStateMachine) Close() error {
	if fsm.sm == nil {
		return nil
	}
	return fsm.sm.Close()
}
