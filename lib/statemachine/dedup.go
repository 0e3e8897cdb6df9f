package statemachine

import (
	"github.com/admariner/datafuse/lib/db"
	"github.com/admariner/datafuse/lib/types"
)

// GetClientLastResp returns the serial and response last recorded for client.
// Clients use it to learn the outcome of a request whose response got lost.
func (s *StateMachine) GetClientLastResp(client string) (uint64, *types.AppliedState, error) {
	var resp *clientResp
	err := s.view(func(tx *db.Txn) error {
		var err error
		resp, err = ksClientResps.Get(tx, client)
		return err
	})
	if err != nil || resp == nil {
		return 0, nil, err
	}
	return resp.Serial, &resp.Resp, nil
}
