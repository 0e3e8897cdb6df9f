package statemachine

import (
	"github.com/admariner/datafuse/lib/db/keyspace"
	"github.com/admariner/datafuse/lib/types"
)

// --------------------------------------------------------------------------
// Keyspace Layout
// --------------------------------------------------------------------------

// Keyspace prefixes inside the state machine tree. They are part of the
// snapshot format and must never change.
const (
	prefixStateMachineMeta byte = 3
	prefixNodes            byte = 4
	prefixFiles            byte = 5
	prefixGenericKV        byte = 6
	prefixSequences        byte = 7
	prefixDatabases        byte = 8
	prefixTables           byte = 9
	prefixClientLastResps  byte = 10
)

// MetaKey identifies a record of the StateMachineMeta keyspace.
type MetaKey uint8

const (
	MetaLastApplied    MetaKey = 1
	MetaInitialized    MetaKey = 2
	MetaLastMembership MetaKey = 3
)

// MetaValue is a tagged union, only the field matching the key is set.
type MetaValue struct {
	Bool       *bool             `json:"Bool,omitempty"`
	LogID      *types.LogID      `json:"LogId,omitempty"`
	Membership *types.Membership `json:"Membership,omitempty"`
}

// clientResp is the last response recorded for a client.
type clientResp struct {
	Serial uint64             `json:"serial"`
	Resp   types.AppliedState `json:"resp"`
}

var (
	ksMeta        = keyspace.New[MetaKey, MetaValue](prefixStateMachineMeta, "StateMachineMeta", keyspace.ByteKey[MetaKey]{})
	ksNodes       = keyspace.New[types.NodeID, types.Node](prefixNodes, "Nodes", keyspace.Uint64Key[types.NodeID]{})
	ksFiles       = keyspace.New[string, string](prefixFiles, "Files", keyspace.StringKey{})
	ksKVs         = keyspace.New[string, types.SeqValue](prefixGenericKV, "GenericKV", keyspace.StringKey{})
	ksSequences   = keyspace.New[string, uint64](prefixSequences, "Sequences", keyspace.StringKey{})
	ksDatabases   = keyspace.New[string, types.Database](prefixDatabases, "Databases", keyspace.StringKey{})
	ksTables      = keyspace.New[uint64, types.Table](prefixTables, "Tables", keyspace.Uint64Key[uint64]{})
	ksClientResps = keyspace.New[string, clientResp](prefixClientLastResps, "ClientLastResps", keyspace.StringKey{})
)
