package statemachine

import (
	"bytes"
	"fmt"
)

// --------------------------------------------------------------------------
// Installing Snapshots
// --------------------------------------------------------------------------

// InstallConflictError is returned when an install starts while another one
// did not finish.
type InstallConflictError struct {
	ID ID
}

func (e *InstallConflictError) Error() string {
	return fmt.Sprintf("another snapshot install is not finished yet: %s", e.ID)
}

// InstallSnapshot replaces the whole state with snap.
//
// The pairs are written into a fresh tree. The install id is bumped to
// (epoch, epoch+1) before and set to (epoch+1, epoch+1) after the import; only
// then the new tree becomes active and the old one is dropped. A crash in
// between leaves epoch != version, which Open detects and rolls back.
func (s *StateMachine) InstallSnapshot(snap *SerializableSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.loadID()
	if err != nil {
		return err
	}
	if id.Epoch != id.Version {
		return &InstallConflictError{ID: id}
	}

	next := ID{Epoch: id.Epoch, Version: id.Version + 1}
	if err := s.writeID(next); err != nil {
		return err
	}

	name := treeName(next.Version)
	if err := s.db.DropTree(name); err != nil {
		return err
	}
	tree, err := s.db.OpenTree(name)
	if err != nil {
		return err
	}
	if err := tree.Import(snap.KVs); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	done := ID{Epoch: next.Version, Version: next.Version}
	if err := s.writeID(done); err != nil {
		return err
	}

	old := s.tree
	s.tree = tree
	s.id = done
	if err := s.db.DropTree(old.Name()); err != nil {
		log.Warningf("failed to drop replaced tree %s: %v", old.Name(), err)
	}

	metricSnapshotInstalls.Inc()
	log.Infof("installed snapshot with %d pairs, state machine id %s", len(snap.KVs), done)
	return nil
}

// InstallSnapshotData decodes data and installs it.
func (s *StateMachine) InstallSnapshotData(data []byte) error {
	snap, err := ReadSnapshot(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.InstallSnapshot(snap)
}
