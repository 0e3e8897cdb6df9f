package types

// --------------------------------------------------------------------------
// Cluster Nodes & Placement
// --------------------------------------------------------------------------

// NodeID identifies a node of the cluster.
type NodeID = uint64

// Node is a registered cluster node.
type Node struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Slot is a placement unit, hosted by NodeIDs.
type Slot struct {
	NodeIDs []NodeID `json:"node_ids"`
}

// Replication describes how many copies of every slot are kept.
// Mirror is the only supported mode: every slot lives on Mirror nodes.
type Replication struct {
	Mirror uint64 `json:"mirror"`
}

// ReplicationMirror returns a Replication keeping n copies of every slot.
func ReplicationMirror(n uint64) Replication {
	return Replication{Mirror: n}
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

// Database is a catalog database. Tables maps table names to table ids.
type Database struct {
	DatabaseID     uint64            `json:"database_id"`
	DatabaseEngine string            `json:"database_engine"`
	Tables         map[string]uint64 `json:"tables"`
}

// TableMeta describes a table as supplied by CreateTable.
type TableMeta struct {
	Schema       []byte            `json:"schema"`
	TableEngine  string            `json:"table_engine"`
	TableOptions map[string]string `json:"table_options"`
	Parts        []string          `json:"parts"`
}

// Table is a registered table.
type Table struct {
	TableID    uint64 `json:"table_id"`
	TableName  string `json:"table_name"`
	DatabaseID uint64 `json:"database_id"`
	DBName     string `json:"db_name"`
	TableMeta
}
