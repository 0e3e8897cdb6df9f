package internal

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGetKV                  QueryType = iota // Generic KV value by key.
	QueryTMGetKV                                  // Generic KV values by keys.
	QueryTPrefixListKV                            // Generic KV pairs by key prefix.
	QueryTGetFile                                 // File entry by key.
	QueryTListFiles                               // File keys by prefix.
	QueryTGetNode                                 // Node by id.
	QueryTGetDatabase                             // Database by name.
	QueryTGetDatabases                            // All databases.
	QueryTGetDatabaseMetaVersion                  // Catalog version.
	QueryTGetTable                                // Table by id.
	QueryTGetLastApplied                          // Last applied log id.
	QueryTGetMembership                           // Last applied membership.
	QueryTGetDBInfo                               // Metadata about the database underlying the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGetKV:
		return "GetKV"
	case QueryTMGetKV:
		return "MGetKV"
	case QueryTPrefixListKV:
		return "PrefixListKV"
	case QueryTGetFile:
		return "GetFile"
	case QueryTListFiles:
		return "ListFiles"
	case QueryTGetNode:
		return "GetNode"
	case QueryTGetDatabase:
		return "GetDatabase"
	case QueryTGetDatabases:
		return "GetDatabases"
	case QueryTGetDatabaseMetaVersion:
		return "GetDatabaseMetaVersion"
	case QueryTGetTable:
		return "GetTable"
	case QueryTGetLastApplied:
		return "GetLastApplied"
	case QueryTGetMembership:
		return "GetMembership"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or StaleRead
type Query struct {
	Type QueryType // The type of Query to perform.
	Key  string    // Key, name or prefix (empty for some queries).
	Keys []string  // Used for: MGetKV
	ID   uint64    // Used for: GetNode, GetTable
}
