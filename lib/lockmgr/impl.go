package lockmgr

import (
	"bytes"
	"time"

	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
)

// KeyPrefix namespaces lock keys inside the generic KV space.
const KeyPrefix = "__lock/"

type lockMgrImpl struct {
	store store.IStore
	now   func() time.Time
}

func NewLockManager(s store.IStore) ILockManager {
	return &lockMgrImpl{
		store: s,
		now:   time.Now,
	}
}

func (lm *lockMgrImpl) AcquireLock(key string, timeout uint64) (bool, []byte, error) {
	ownerID, err := generateOwnerID()
	if err != nil {
		return false, nil, err
	}

	var meta *types.KVMeta
	if timeout > 0 {
		meta = &types.KVMeta{ExpireAt: uint64(lm.now().Unix()) + timeout}
	}

	// Only succeeds if no (unexpired) lock exists
	change, err := store.UpsertKV(lm.store, KeyPrefix+key, types.MatchExact(0), types.OpUpdate(ownerID), meta)
	if err != nil {
		log.Warningf("acquire lock %s: %v", key, err)
		return false, nil, err
	}

	// Return true if lock was acquired BY US
	if change.Result != nil && bytes.Equal(change.Result.Value.Value, ownerID) {
		return true, ownerID, nil
	}
	return false, nil, nil
}

func (lm *lockMgrImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	current, err := lm.store.GetKV(KeyPrefix + key)
	if err != nil || current == nil {
		return err == nil, err
	}

	// Check if the lock is owned by us
	if !bytes.Equal(ownerID, current.Value.Value) {
		return false, nil
	}

	// Delete only the version we just read, a lock re-acquired in the meantime stays
	change, err := store.UpsertKV(lm.store, KeyPrefix+key, types.MatchExact(current.Seq), types.OpDelete(), nil)
	if err != nil {
		return false, err
	}
	return change.Result == nil, nil
}
