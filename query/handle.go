package query

import (
	"context"

	"github.com/bookyhq/booksync/store"
)

// Handle binds one key and its fetcher into the consumer-facing query
// surface: read a snapshot, await freshness, force a refetch, or
// watch for changes. Consumers hold a Handle instead of touching the
// store directly.
type Handle struct {
	runner *Runner
	key    store.Key
	fetch  Fetcher
}

// Handle creates a query handle for key.
func (r *Runner) Handle(key store.Key, fetch Fetcher) *Handle {
	return &Handle{runner: r, key: key, fetch: fetch}
}

// Key returns the key this handle addresses.
func (h *Handle) Key() store.Key {
	return h.key
}

// Snapshot returns the current entry without triggering any fetch.
func (h *Handle) Snapshot() store.Entry {
	return h.runner.store.Read(h.key)
}

// Get awaits a fresh entry, fetching or joining an in-flight fetch as
// needed.
func (h *Handle) Get(ctx context.Context) (store.Entry, error) {
	return h.runner.EnsureFresh(ctx, h.key, h.fetch)
}

// Read returns the current entry immediately, refreshing stale data
// in the background.
func (h *Handle) Read(ctx context.Context) store.Entry {
	return h.runner.Read(ctx, h.key, h.fetch)
}

// Refetch invalidates the entry and fetches authoritative data.
func (h *Handle) Refetch(ctx context.Context) (store.Entry, error) {
	return h.runner.Refetch(ctx, h.key, h.fetch)
}

// Watch subscribes fn to every write of the key. The returned
// function cancels the subscription.
func (h *Handle) Watch(fn store.Subscriber) func() {
	return h.runner.store.Subscribe(h.key, fn)
}
