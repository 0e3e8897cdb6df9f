package statemachine

import (
	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Generic KV Commands
// --------------------------------------------------------------------------

// upsertKV applies a conditional write. Expired values count as absent. If the
// condition fails nothing changes and the result is (prev, prev).
func upsertKV(tx *db.Txn, cmd types.Cmd, now uint64) (types.AppliedState, error) {
	stored, err := ksKVs.Get(tx, cmd.Key)
	if err != nil {
		return types.AppliedState{}, err
	}
	prev := stored.Unexpired(now)

	if err := cmd.Seq.Match(prev); err != nil {
		log.Debugf("upsert %s: %s", cmd.Key, err)
		return types.AppliedKV(prev, prev), nil
	}

	switch cmd.Op.Type {
	case types.OpTUpdate:
		result, err := kvUpdate(tx, cmd.Key, cmd.Op.Value, cmd.ValueMeta)
		return types.AppliedKV(prev, result), err
	case types.OpTDelete:
		if _, err := ksKVs.Remove(tx, cmd.Key); err != nil {
			return types.AppliedState{}, err
		}
		return types.AppliedKV(prev, nil), nil
	case types.OpTAsIs:
		if prev == nil {
			return types.AppliedKV(nil, nil), nil
		}
		result, err := kvUpdate(tx, cmd.Key, prev.Value.Value, cmd.ValueMeta)
		return types.AppliedKV(prev, result), err
	default:
		return types.AppliedState{}, types.NewCmdError(types.ErrCodeInvalidCommand, "unknown operation %d", cmd.Op.Type)
	}
}

// kvUpdate stores value stamped with the next generic_kv sequence number.
func kvUpdate(tx *db.Txn, key string, value []byte, meta *types.KVMeta) (*types.SeqValue, error) {
	seq, err := incrSeq(tx, SeqGenericKV)
	if err != nil {
		return nil, err
	}
	sv := types.SeqValue{Seq: seq, Value: types.KVValue{Meta: meta, Value: value}}
	if _, err := ksKVs.Insert(tx, key, sv); err != nil {
		return nil, err
	}
	return &sv, nil
}

// expireKVs removes every value expired at now and returns how many were removed.
func expireKVs(tx *db.Txn, now uint64) (uint64, error) {
	if now == 0 {
		return 0, nil
	}
	var expired []string
	err := ksKVs.Range(tx, func(k string, v types.SeqValue) error {
		if v.Value.ExpiredAt(now) {
			expired = append(expired, k)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, k := range expired {
		if _, err := ksKVs.Remove(tx, k); err != nil {
			return 0, err
		}
	}
	metricExpiredKVs.Add(len(expired))
	return uint64(len(expired)), nil
}

// --------------------------------------------------------------------------
// Generic KV Reads
// --------------------------------------------------------------------------

// GetKV returns the value of key, or nil if it is absent or expired.
func (s *StateMachine) GetKV(key string) (*types.SeqValue, error) {
	now := s.nowSecs()
	var sv *types.SeqValue
	err := s.view(func(tx *db.Txn) error {
		v, err := ksKVs.Get(tx, key)
		sv = v.Unexpired(now)
		return err
	})
	return sv, err
}

// MGetKV returns the values of keys in order. Absent or expired keys yield nil.
func (s *StateMachine) MGetKV(keys []string) ([]*types.SeqValue, error) {
	now := s.nowSecs()
	out := make([]*types.SeqValue, len(keys))
	err := s.view(func(tx *db.Txn) error {
		for i, key := range keys {
			v, err := ksKVs.Get(tx, key)
			if err != nil {
				return err
			}
			out[i] = v.Unexpired(now)
		}
		return nil
	})
	return out, err
}

// PrefixListKV returns all unexpired pairs whose key starts with prefix, in key order.
func (s *StateMachine) PrefixListKV(prefix string) ([]types.KVPair, error) {
	now := s.nowSecs()
	var out []types.KVPair
	err := s.view(func(tx *db.Txn) error {
		pairs, err := ksKVs.ScanPrefix(tx, prefix)
		for _, p := range pairs {
			if !p.Value.Value.ExpiredAt(now) {
				out = append(out, types.KVPair{Key: p.Key, Value: p.Value})
			}
		}
		return err
	})
	return out, err
}
