package statemachine

import (
	"errors"
	"fmt"
	"time"

	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Applying Entries
// --------------------------------------------------------------------------

// Apply applies one committed raft entry and returns its result.
//
// The entry runs in a single transaction: its side effects and the new last
// applied id are committed together. Normal entries carrying a TxID that was
// already applied return the recorded response without being applied again.
//
// A returned error means the storage failed and the entry was not applied.
// Commands rejected for semantic reasons are not errors, they produce an
// AppliedState of type AppliedTError.
func (s *StateMachine) Apply(entry types.Entry) (types.AppliedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result := types.AppliedNone()

	err := s.tree.Update(func(tx *db.Txn) error {
		if err := setLastApplied(tx, entry.LogID); err != nil {
			return err
		}

		switch entry.Type {
		case types.EntryTBlank, types.EntryTSnapshotPointer:
			return nil
		case types.EntryTConfigChange:
			if entry.Membership == nil {
				return nil
			}
			_, err := ksMeta.Insert(tx, MetaLastMembership, MetaValue{Membership: entry.Membership})
			return err
		case types.EntryTNormal:
			if entry.Normal == nil {
				return nil
			}
			var err error
			result, err = s.applyNormal(tx, entry.Normal)
			return err
		default:
			return fmt.Errorf("unknown entry type %d", entry.Type)
		}
	})
	if err != nil {
		metricApplyErrors.Inc()
		return types.AppliedState{}, fmt.Errorf("apply entry %s: %w", entry.LogID, err)
	}

	observeApply(entry, result, start)
	log.Debugf("applied %s (%s)", entry.LogID, entry.Type)
	return result, nil
}

// ApplyCmd applies a command outside of raft. The last applied id is left
// untouched and expiry is evaluated against the wall clock.
func (s *StateMachine) ApplyCmd(cmd types.Cmd) (types.AppliedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result types.AppliedState
	err := s.tree.Update(func(tx *db.Txn) error {
		var err error
		result, err = s.applyCmdRecorded(tx, cmd, s.nowSecs())
		return err
	})
	return result, err
}

func (s *StateMachine) applyNormal(tx *db.Txn, entry *types.LogEntry) (types.AppliedState, error) {
	if entry.TxID != nil {
		cached, err := ksClientResps.Get(tx, entry.TxID.Client)
		if err != nil {
			return types.AppliedState{}, err
		}
		if cached != nil && cached.Serial == entry.TxID.Serial {
			metricDedupHits.Inc()
			log.Warningf("duplicate request %s/%d, returning recorded response", entry.TxID.Client, entry.TxID.Serial)
			return cached.Resp, nil
		}
	}

	result, err := s.applyCmdRecorded(tx, entry.Cmd, entry.Time)
	if err != nil {
		return types.AppliedState{}, err
	}

	if entry.TxID != nil {
		resp := clientResp{Serial: entry.TxID.Serial, Resp: result}
		if _, err := ksClientResps.Insert(tx, entry.TxID.Client, resp); err != nil {
			return types.AppliedState{}, err
		}
	}
	return result, nil
}

// applyCmdRecorded applies cmd and turns a command rejection into an error result.
func (s *StateMachine) applyCmdRecorded(tx *db.Txn, cmd types.Cmd, now uint64) (types.AppliedState, error) {
	result, err := s.applyCmd(tx, cmd, now)
	var cmdErr *types.CmdError
	if errors.As(err, &cmdErr) {
		log.Infof("rejected %s: %s", cmd, cmdErr)
		return types.AppliedError(cmdErr), nil
	}
	return result, err
}

func (s *StateMachine) applyCmd(tx *db.Txn, cmd types.Cmd, now uint64) (types.AppliedState, error) {
	switch cmd.Type {
	case types.CmdTAddFile:
		return addFile(tx, cmd.Key, cmd.Value)
	case types.CmdTSetFile:
		return setFile(tx, cmd.Key, cmd.Value)
	case types.CmdTIncrSeq:
		seq, err := incrSeq(tx, cmd.Key)
		return types.AppliedSeq(seq), err
	case types.CmdTAddNode:
		if cmd.Node == nil {
			return types.AppliedState{}, types.NewCmdError(types.ErrCodeInvalidCommand, "add_node without node")
		}
		return addNode(tx, cmd.NodeID, *cmd.Node)
	case types.CmdTCreateDatabase:
		return createDatabase(tx, cmd.Name, cmd.Engine)
	case types.CmdTDropDatabase:
		return dropDatabase(tx, cmd.Name)
	case types.CmdTCreateTable:
		var meta types.TableMeta
		if cmd.Table != nil {
			meta = *cmd.Table
		}
		return createTable(tx, cmd.DBName, cmd.TableName, meta)
	case types.CmdTDropTable:
		return dropTable(tx, cmd.DBName, cmd.TableName)
	case types.CmdTUpsertKV:
		return upsertKV(tx, cmd, now)
	case types.CmdTExpireKVs:
		n, err := expireKVs(tx, now)
		return types.AppliedExpired(n), err
	default:
		return types.AppliedState{}, types.NewCmdError(types.ErrCodeInvalidCommand, "unknown command type %d", cmd.Type)
	}
}

// setLastApplied records id unless a later entry was already recorded.
func setLastApplied(tx *db.Txn, id types.LogID) error {
	current, err := lastApplied(tx)
	if err != nil {
		return err
	}
	if id.Index < current.Index {
		return nil
	}
	_, err = ksMeta.Insert(tx, MetaLastApplied, MetaValue{LogID: &id})
	return err
}
