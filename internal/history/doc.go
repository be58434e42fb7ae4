// Package history provides SQLite-based storage for past prediction
// results, powering the history subcommand and the audit trail behind the
// HTTP API.
//
// Storage is optional to the scoring pipeline: a prediction that cannot be
// persisted is still returned to the caller, and the store never blocks a
// scan on disk health.
package history
