// Package keyspace provides typed, prefix separated views over a db tree.
//
// The state machine keeps all of its records in a single tree. Each record
// family (meta, nodes, files, generic kv, sequences, ...) is a KeySpace with its
// own one byte prefix, a key codec and a JSON encoded value type. Because the
// prefix is the first key byte, a keyspace occupies one contiguous key range and
// can be scanned in key order.
package keyspace
