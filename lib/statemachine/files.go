package statemachine

import (
	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Files
// --------------------------------------------------------------------------

// addFile inserts value if key is absent. An existing entry is kept and
// reported as (prev, nil).
func addFile(tx *db.Txn, key, value string) (types.AppliedState, error) {
	prev, err := ksFiles.Get(tx, key)
	if err != nil {
		return types.AppliedState{}, err
	}
	if prev != nil {
		return types.AppliedFile(prev, nil), nil
	}
	if _, err := ksFiles.Insert(tx, key, value); err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedFile(nil, &value), nil
}

// setFile overwrites key.
func setFile(tx *db.Txn, key, value string) (types.AppliedState, error) {
	prev, err := ksFiles.Insert(tx, key, value)
	if err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedFile(prev, &value), nil
}

// GetFile returns the file entry stored under key, or nil.
func (s *StateMachine) GetFile(key string) (*string, error) {
	var v *string
	err := s.view(func(tx *db.Txn) error {
		var err error
		v, err = ksFiles.Get(tx, key)
		return err
	})
	return v, err
}

// ListFiles returns the keys of all file entries starting with prefix.
func (s *StateMachine) ListFiles(prefix string) ([]string, error) {
	var keys []string
	err := s.view(func(tx *db.Txn) error {
		pairs, err := ksFiles.ScanPrefix(tx, prefix)
		for _, p := range pairs {
			keys = append(keys, p.Key)
		}
		return err
	})
	return keys, err
}

// --------------------------------------------------------------------------
// Nodes
// --------------------------------------------------------------------------

// addNode registers node if id is unknown. An existing node is kept and
// reported as (prev, nil).
func addNode(tx *db.Txn, id types.NodeID, node types.Node) (types.AppliedState, error) {
	prev, err := ksNodes.Get(tx, id)
	if err != nil {
		return types.AppliedState{}, err
	}
	if prev != nil {
		return types.AppliedNode(prev, nil), nil
	}
	if _, err := ksNodes.Insert(tx, id, node); err != nil {
		return types.AppliedState{}, err
	}
	return types.AppliedNode(nil, &node), nil
}

// GetNode returns the node registered under id, or nil.
func (s *StateMachine) GetNode(id types.NodeID) (*types.Node, error) {
	var n *types.Node
	err := s.view(func(tx *db.Txn) error {
		var err error
		n, err = ksNodes.Get(tx, id)
		return err
	})
	return n, err
}

// ListNodeIDs returns the ids of all registered nodes in ascending order.
func (s *StateMachine) ListNodeIDs() ([]types.NodeID, error) {
	var ids []types.NodeID
	err := s.view(func(tx *db.Txn) error {
		var err error
		ids, err = ksNodes.RangeKeys(tx)
		return err
	})
	return ids, err
}
