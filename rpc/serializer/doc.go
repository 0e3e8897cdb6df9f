// Package serializer converts RPC messages to bytes and back.
//
// Two formats are available, selected by name with New:
//
//   - json: human readable, message types are written by name. The default.
//   - gob: Go's binary format, smaller for messages with large values.
//
// All serializers are stateless and safe for concurrent use.
package serializer
