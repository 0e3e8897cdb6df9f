// Package http implements the transport interfaces over plain HTTP.
//
// The server accepts POST /{shardId} with the serialized request as body and
// answers with the serialized response. It also exposes the process metrics
// in Prometheus text format at GET /metrics. With log level debug every request
// is logged together with its status and duration.
//
// The client spreads requests round-robin over all configured endpoints. A
// failed request is retried on the next endpoint up to RetryCount times.
// Writes are safe to retry because the RPC client attaches a transaction id
// that the state machine de-duplicates.
package http
