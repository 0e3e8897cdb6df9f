package server

import (
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request against the store of the shard and returns a response.
	// If an error occurs, it is set in the response
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
