// Package dstore implements a replicated store.IStore using the Dragonboat raft
// library. Every replica of a shard runs a statemachine.StateMachine, wrapped as a
// Dragonboat IOnDiskStateMachine (MetaStateMachine).
//
// Architecture:
//
//   - Store Client (store.go): Implements store.IStore. Write wraps a types.LogEntry
//     in an internal.Command envelope, proposes it with SyncPropose and decodes the
//     types.AppliedState returned by the state machine.
//
//   - State Machine (statemachine.go): Decodes committed envelopes into types.Entry
//     values and applies them. The state machine persists its last applied index in
//     the same transaction as the command, which is what Dragonboat expects from an
//     on-disk state machine: after a restart only entries after that index are replayed.
//
//   - Communication Protocol: Defined in the internal package, the Command envelope
//     (type, term, body) and the Query structure passed to Lookup.
//
// Terms:
//
//	Dragonboat does not hand the term of an entry to the state machine. The proposer
//	stamps the leader term it observes into the envelope, so that the recorded log
//	ids carry a term. It is informational; ordering is by index.
//
// Read Operations:
//
//   - Linearizable Reads: By default, reads use SyncRead which ensures that the node
//     processing the read has applied all committed log entries locally before processing
//     the request.
//
//   - Stale Reads: GetDBInfo uses StaleRead, which may return slightly outdated
//     information but with lower latency.
//
// Error Handling and Retries:
//
//	When Dragonboat returns ErrSystemBusy, the operation is retried after a short
//	delay, up to 5 attempts. All operations have a configurable timeout. Commands
//	the state machine rejected come back with RetCRejected and a regular
//	AppliedState of type AppliedTError.
//
// Snapshotting and Recovery:
//
//   - PrepareSnapshot opens a point-in-time view of the state machine tree, SaveSnapshot
//     streams it while updates continue.
//   - RecoverFromSnapshot installs the received pairs into a fresh tree and switches
//     over, guarded by the install id of the state machine.
//
// Membership:
//
//	The store implements store.MaintenanceTask. When the sweeper runs it on the
//	leader, the current shard membership is recorded in the state machine through
//	a config change envelope.
//
// Example:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//
//	err = nh.StartOnDiskReplica(members, false,
//	    dstore.CreateStateMachineFactory(func(shardID, replicaID uint64) statemachine.Config {
//	        return statemachine.Config{Path: fmt.Sprintf("data/%d-%d.db", shardID, replicaID)}
//	    }),
//	    shardConfig)
//
//	s := dstore.NewDistributedStore(nh, shardID, replicaID, 5*time.Second)
//	sweeper := store.NewSweeper(s, time.Minute, dstore.IsLeaderFunc(s))
//
// Deployment Recommendations:
//
//   - Node Count: Deploy with an odd number of nodes (typically 3 or 5) to ensure
//     majority consensus is always possible.
//   - Operations cannot proceed if a majority of replicas is unavailable.
package dstore
