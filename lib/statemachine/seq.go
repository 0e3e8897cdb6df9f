package statemachine

import (
	"github.com/admariner/datafuse/lib/db"
)

// incrSeq increments the named sequence and returns the new value. A missing
// sequence starts at 0, so the first call returns 1.
func incrSeq(tx *db.Txn, name string) (uint64, error) {
	next, err := ksSequences.UpdateAndFetch(tx, name, func(old *uint64) *uint64 {
		n := uint64(1)
		if old != nil {
			n = *old + 1
		}
		return &n
	})
	if err != nil {
		return 0, err
	}
	return *next, nil
}

func currentSeq(tx *db.Txn, name string) (uint64, error) {
	v, err := ksSequences.Get(tx, name)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

// GetSeq returns the current value of a sequence, 0 if it was never incremented.
func (s *StateMachine) GetSeq(name string) (uint64, error) {
	var seq uint64
	err := s.view(func(tx *db.Txn) error {
		var err error
		seq, err = currentSeq(tx, name)
		return err
	})
	return seq, err
}
