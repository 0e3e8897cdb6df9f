package server

import (
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/admariner/datafuse/lib/statemachine"
	"github.com/admariner/datafuse/lib/store"
	"github.com/admariner/datafuse/lib/store/dstore"
	"github.com/admariner/datafuse/lib/store/lstore"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/transport"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// RPCServer serves the configured shards over a transport.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	nodeHost *dragonboat.NodeHost
	locals   []*statemachine.StateMachine
	sweepers []*store.Sweeper
}

// handle decodes a request, lets the adapter of the shard handle it and encodes the response
func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	if shard, ok := s.shards.Load(shardId); !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = shard.Adapter.Handle(&msg, shard.Store)
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize %s response: %v", respMsg.MsgType, err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

func (s *RPCServer) init() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	if s.config.HasRemoteShard() {
		common.SetLogNode(fmt.Sprintf("replica %d", s.config.ReplicaID))
	} else {
		common.SetLogNode(s.config.Endpoint)
	}

	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	Logger.Infof("%s", s.config.String())

	// Only create the NodeHost if we have remote shards
	if s.config.HasRemoteShard() {
		nodeHost, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nodeHost
	}

	timeout := time.Duration(s.config.TimeoutSecond) * time.Second
	sweepInterval := time.Duration(s.config.SweepIntervalSecond) * time.Second

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		Each shard serves either the store or the lock manager on top of a store.
	*/
	for _, shardConfig := range s.config.Shards {
		var st store.IStore
		var isLeader func() bool

		if shardConfig.Type.IsRemote() {
			factory := dstore.CreateStateMachineFactory(func(shardID, _ uint64) statemachine.Config {
				return s.config.ToStateMachineConfig(common.ServerShard{ShardID: shardID, Type: shardConfig.Type})
			})
			if err := s.nodeHost.StartOnDiskReplica(s.config.ClusterMembers, false, factory, s.config.ToDragonboatConfig(shardConfig.ShardID)); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			st = dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, s.config.ReplicaID, timeout)
			isLeader = dstore.IsLeaderFunc(st)
		} else {
			sm, err := statemachine.Open(s.config.ToStateMachineConfig(shardConfig))
			if err != nil {
				return fmt.Errorf("failed to open local shard %d: %w", shardConfig.ShardID, err)
			}
			s.locals = append(s.locals, sm)
			if st, err = lstore.NewLocalStore(sm); err != nil {
				return fmt.Errorf("failed to create local store for shard %d: %w", shardConfig.ShardID, err)
			}
		}

		var adapter IRPCServerAdapter
		if shardConfig.Type.IsLockManager() {
			adapter = NewLockManagerServerAdapter()
		} else {
			adapter = NewIStoreServerAdapter()
		}
		s.shards.Store(shardConfig.ShardID, serverShard{Store: st, Adapter: adapter})

		if sweepInterval > 0 {
			sweeper := store.NewSweeper(st, sweepInterval, isLeader)
			sweeper.Start()
			s.sweepers = append(s.sweepers, sweeper)
		}
		Logger.Infof("created %s for shard %d", shardConfig.Type, shardConfig.ShardID)
	}

	Logger.Infof("dmeta setup completed successfully")

	s.transport.RegisterHandler(s.handle)
	return nil
}

// Serve initializes the shards and starts the transport layer.
// It blocks until the transport is closed.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return errors.Join(err, s.shutdown())
	}
	return s.transport.Listen(s.config)
}

// Stop closes the transport, then the shards.
func (s *RPCServer) Stop() error {
	err := s.transport.Close()
	return errors.Join(err, s.shutdown())
}

func (s *RPCServer) shutdown() error {
	for _, sweeper := range s.sweepers {
		sweeper.Stop()
	}
	s.sweepers = nil

	if s.nodeHost != nil {
		s.nodeHost.Close()
		s.nodeHost = nil
	}

	var errs []error
	for _, sm := range s.locals {
		errs = append(errs, sm.Close())
	}
	s.locals = nil
	return errors.Join(errs...)
}
