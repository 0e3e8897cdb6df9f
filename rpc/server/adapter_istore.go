package server

import (
	"fmt"

	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	t := req.MsgType
	switch t {
	case common.MsgTWrite:
		if req.Entry == nil {
			return common.NewErrorResponse("handler: write request without entry")
		}
		applied, err := s.Write(*req.Entry)
		return common.NewWriteResponse(applied, err)
	case common.MsgTGetKV:
		v, err := s.GetKV(req.Key)
		return common.NewReadResponse(t, v, err)
	case common.MsgTMGetKV:
		v, err := s.MGetKV(req.Keys)
		return common.NewReadResponse(t, v, err)
	case common.MsgTPrefixListKV:
		v, err := s.PrefixListKV(req.Key)
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetFile:
		v, err := s.GetFile(req.Key)
		return common.NewReadResponse(t, v, err)
	case common.MsgTListFiles:
		v, err := s.ListFiles(req.Key)
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetNode:
		v, err := s.GetNode(types.NodeID(req.ID))
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetDatabase:
		v, err := s.GetDatabase(req.Key)
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetDatabases:
		v, err := s.GetDatabases()
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetDatabaseMetaVersion:
		v, err := s.GetDatabaseMetaVersion()
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetTable:
		v, err := s.GetTable(req.ID)
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetLastApplied:
		v, err := s.GetLastApplied()
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetMembership:
		v, err := s.GetMembership()
		return common.NewReadResponse(t, v, err)
	case common.MsgTGetDBInfo:
		v, err := s.GetDBInfo()
		return common.NewReadResponse(t, v, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", t))
	}
}
