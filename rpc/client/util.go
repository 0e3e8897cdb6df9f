package client

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/transport"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var (
	Logger = logger.GetLogger("rpc")

	// Registry holds the latency timers and error counters of all RPC clients in this process
	Registry = gometrics.NewRegistry()
)

// WriteStats writes a snapshot of the client metrics to w
func WriteStats(w io.Writer) {
	gometrics.WriteOnce(Registry, w)
}

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the RPCStore and RPCLockMgr with composition pattern
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer

	// client identity for de-duplicated writes
	clientID string
	serial   atomic.Uint64
}

func (a *rpcClientAdapter) init(shardId uint64, config common.ClientConfig, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) {
	a.shardId = shardId
	a.config = config
	a.transport = transport
	a.serializer = serializer
	a.clientID = uuid.NewString()
}

// nextTxID returns a new transaction id. Serials start at 1 and grow per client.
func (a *rpcClientAdapter) nextTxID() *types.TxID {
	return &types.TxID{Client: a.clientID, Serial: a.serial.Add(1)}
}

// invoke sends req to the shard of the adapter
func (a *rpcClientAdapter) invoke(req *common.Message) (*common.Message, error) {
	return invokeRPCRequest(a.shardId, req, a.transport, a.serializer)
}

// invokeRPCRequest is a helper function used for all RPC Clients to send requests
// It takes a shard ID, a request message, a transport layer and a serializer as parameters
// It returns a response message and an error if any occurs
// This method also checks if the response is an error response and if the type of the response is the expected type
func invokeRPCRequest(shardId uint64, req *common.Message, transport transport.IRPCClientTransport, serializer serializer.IRPCSerializer) (resp *common.Message, err error) {
	start := time.Now()
	defer func() {
		gometrics.GetOrRegisterTimer("rpc."+req.MsgType.String(), Registry).UpdateSince(start)
		if err != nil {
			gometrics.GetOrRegisterCounter("rpc."+req.MsgType.String()+".errors", Registry).Inc(1)
		}
	}()

	reqBytes, err := serializer.Serialize(*req)
	if err != nil {
		return nil, err
	}

	respBytes, err := transport.Send(shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp = &common.Message{}
	if err = serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("RPC client - Error: %s", err)
	}

	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, fmt.Errorf("RPC client - Error: %s", resp.Err)
	}

	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("RPC client - Unexpected message type: %s, expected %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}
