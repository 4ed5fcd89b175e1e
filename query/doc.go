// Package query turns "read this key" intents into materialized,
// deduplicated, staleness-aware fetches against the remote data
// source.
//
// The Runner guarantees that any number of concurrent reads of the
// same key issue at most one network call, that responses commit in
// request-issue order (last request wins), and that stale entries
// keep serving their previous data while a refresh is in flight.
//
// The runner never retries on its own; transient failures surface as
// error-status entries with prior data retained, and retry policy
// belongs to the caller (see RetryOnce).
package query
