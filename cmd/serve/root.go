package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	cmdUtil "github.com/admariner/datafuse/cmd/util"
	"github.com/admariner/datafuse/lib/util"
	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/serializer"
	"github.com/admariner/datafuse/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dmeta server",
		Long:    `Start the dmeta server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DMETA_<flag> (e.g. DMETA_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=lstore,200=lockmgr(lstore)", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is one of: dstore, lstore, lockmgr(dstore), lockmgr(lstore)"))

	key = "rtt-millisecond"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("(Cluster Mode) RTTMillisecond defines the average Round Trip Time (RTT) in milliseconds between two NodeHost instances. The election timeout is 10 RTT, the heartbeat interval 1 RTT"))

	key = "snapshot-entries"
	ServeCmd.PersistentFlags().Int(key, 1000, cmdUtil.WrapString("(Cluster Mode) SnapshotEntries defines how often the state machine should be snapshotted automatically, in applied Raft log entries. 0 disables automatic snapshots (not recommended)"))

	key = "compaction-overhead"
	ServeCmd.PersistentFlags().Int(key, 500, cmdUtil.WrapString("(Cluster Mode) CompactionOverhead is the number of log entries kept after a snapshot, so that slow followers can catch up without a snapshot transfer"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("DataDir is the directory holding the state machine files and the raft log"))

	key = "replica-id"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(Cluster Mode) ReplicaID is the unique identifier for this NodeHost instance (e.g. 'node-1')"))

	key = "cluster-members"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(Cluster Mode) ClusterMembers is a comma-separated list of NodeHost addresses in the format 'node-1=localhost:63001,node-2=localhost:63002,...'"))

	key = "slots"
	ServeCmd.PersistentFlags().Uint64(key, 3, cmdUtil.WrapString("Number of placement slots file keys are hashed onto"))

	key = "mirror-replicas"
	ServeCmd.PersistentFlags().Uint64(key, 1, cmdUtil.WrapString("Number of nodes assigned to every placement slot"))

	key = "no-sync"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Skip fsync of the state machine files. Only safe for raft shards, where the log provides durability"))

	key = "mmap-size-mb"
	ServeCmd.PersistentFlags().Uint64(key, 64, cmdUtil.WrapString("Initial mmap size of each state machine file in MiB. Writes wait for running snapshot transfers once a file grows past it, so it should cover the expected file size"))

	key = "sweep-interval"
	ServeCmd.PersistentFlags().Int64(key, 60, cmdUtil.WrapString("Seconds between two expiry sweeps of a store (0 disables sweeping)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("(Cluster Mode) Timeout in seconds for proposals and reads"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// parseShards parses the --shards flag
func parseShards(raw string) ([]common.ServerShard, error) {
	var shards []common.ServerShard
	for _, shardConfig := range strings.Split(raw, ",") {
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=TYPE)", shardConfig)
		}

		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %w", parts[0], err)
		}

		var shardType common.ServerShardType
		switch strings.TrimSpace(parts[1]) {
		case "dstore":
			shardType = common.ShardTypeRemoteIStore
		case "lstore":
			shardType = common.ShardTypeLocalIStore
		case "lockmgr(dstore)":
			shardType = common.ShardTypeRemoteILockManager
		case "lockmgr(lstore)":
			shardType = common.ShardTypeLocalILockManager
		default:
			return nil, fmt.Errorf("invalid shard type: %s (expected one of: dstore, lstore, lockmgr(dstore), lockmgr(lstore))", parts[1])
		}

		shards = append(shards, common.ServerShard{ShardID: shardID, Type: shardType})
	}
	return shards, nil
}

// parseClusterMembers parses the --cluster-members flag. Member names are hashed to replica ids.
func parseClusterMembers(raw string) (map[uint64]string, error) {
	members := make(map[uint64]string)
	for _, member := range strings.Split(raw, ",") {
		parts := strings.Split(member, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid cluster member format: %s (expected ID=address)", member)
		}
		members[util.HashString(parts[0], 0)] = parts[1]
	}
	return members, nil
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	serveCmdConfig.RTTMillisecond = viper.GetUint64("rtt-millisecond")
	serveCmdConfig.SnapshotEntries = viper.GetUint64("snapshot-entries")
	serveCmdConfig.CompactionOverhead = viper.GetUint64("compaction-overhead")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.Slots = viper.GetUint64("slots")
	serveCmdConfig.MirrorReplicas = viper.GetUint64("mirror-replicas")
	serveCmdConfig.NoSync = viper.GetBool("no-sync")
	serveCmdConfig.MmapSizeMB = viper.GetUint64("mmap-size-mb")
	serveCmdConfig.SweepIntervalSecond = viper.GetInt64("sweep-interval")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.Serializer = viper.GetString("serializer")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if id := viper.GetString("replica-id"); id != "" {
		serveCmdConfig.ReplicaID = util.HashString(id, 0)
	} else if serveCmdConfig.HasRemoteShard() {
		return fmt.Errorf("ReplicaId is required for remote shards")
	}

	if raw := viper.GetString("cluster-members"); raw != "" {
		if serveCmdConfig.ClusterMembers, err = parseClusterMembers(raw); err != nil {
			return err
		}
	} else if serveCmdConfig.HasRemoteShard() {
		return fmt.Errorf("ClusterMembers is required for remote shards")
	}

	return serveCmdConfig.Validate()
}

// run starts the server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := serializer.New(serveCmdConfig.Serializer)
	if err != nil {
		return err
	}
	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		if err := serv.Stop(); err != nil {
			server.Logger.Errorf("shutdown: %v", err)
		}
	}()

	return serv.Serve()
}
