package statemachine

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/lib/util"
)

// --------------------------------------------------------------------------
// Placement
// --------------------------------------------------------------------------

// initSlots creates the configured number of empty slots.
func (s *StateMachine) initSlots() {
	s.slots = make([]types.Slot, s.config.InitialSlots)
}

// Slots returns a copy of the slot table.
func (s *StateMachine) Slots() []types.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Slot, len(s.slots))
	for i, slot := range s.slots {
		out[i] = types.Slot{NodeIDs: slices.Clone(slot.NodeIDs)}
	}
	return out
}

// Replication returns the replication policy.
func (s *StateMachine) Replication() types.Replication {
	return s.replication
}

// AssignRandNodesToSlot assigns Mirror distinct random nodes to slot i.
// It fails if fewer nodes than Mirror are registered.
func (s *StateMachine) AssignRandNodesToSlot(i int) error {
	ids, err := s.ListNodeIDs()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.slots) {
		return fmt.Errorf("slot %d out of range [0, %d)", i, len(s.slots))
	}
	picked, err := randNFromM(len(ids), int(s.replication.Mirror))
	if err != nil {
		return fmt.Errorf("assign slot %d: %w", i, err)
	}
	nodeIDs := make([]types.NodeID, len(picked))
	for j, p := range picked {
		nodeIDs[j] = ids[p]
	}
	s.slots[i] = types.Slot{NodeIDs: nodeIDs}
	return nil
}

// SlotForKey returns the slot responsible for key.
func (s *StateMachine) SlotForKey(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return util.Bucket(key, len(s.slots))
}

// GetPlacementNodes returns the nodes hosting the slot of key.
func (s *StateMachine) GetPlacementNodes(key string) ([]types.Node, error) {
	slot := s.Slots()[s.SlotForKey(key)]
	nodes := make([]types.Node, 0, len(slot.NodeIDs))
	for _, id := range slot.NodeIDs {
		n, err := s.GetNode(id)
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, fmt.Errorf("node %d not found", id)
		}
		nodes = append(nodes, *n)
	}
	return nodes, nil
}

// randNFromM picks n distinct indices out of [0, m), sorted ascending.
func randNFromM(m, n int) ([]int, error) {
	if n > m {
		return nil, fmt.Errorf("not enough nodes: need %d, have %d", n, m)
	}
	picked := rand.Perm(m)[:n]
	slices.Sort(picked)
	return picked, nil
}
