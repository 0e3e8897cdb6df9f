// Package cmd implements the command-line interface of dmeta. It provides a
// hierarchical command structure for running the metadata server and for
// talking to it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the server
//   - kv: Generic key-value operations (upsert, get, list, incr, etc.)
//   - file: File entry operations
//   - catalog: Database and table operations, plus the node command group
//   - lock: Locking operations (acquire, release)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dmeta -help for a list of all commands.
package cmd
