// Package store provides the keyed entity cache at the center of the
// synchronization layer.
//
// Every fetched or derived piece of server state lives in one Store,
// addressed by a composite Key (entity family plus parameters). The
// store owns staleness bookkeeping, last-request-wins fetch guarding,
// snapshot/restore for optimistic rollback, and change notification.
//
// Contract:
// - Concurrency: Store is safe for concurrent use.
// - Data ownership: Entry.Data values are treated as immutable once
//   written; writers replace the whole value, never mutate in place.
//   This is what makes Snapshot/Restore verbatim.
// - Errors: Read never fails; superseded fetch results are reported
//   as ErrStaleWrite and must not be surfaced to consumers.
package store
