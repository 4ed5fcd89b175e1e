// Package client wires the synchronization layer into one consumer
// surface: typed queries with cache/dedup/staleness semantics, and
// mutations with optimistic apply, rollback, invalidation, and
// cross-entity reconciliation.
//
// Consumers hold a Client (or query Handles from it) and never touch
// the store directly. Every collaborator (store, runner, coordinator,
// remote source, session, observer) is constructed explicitly and
// injected; there are no package-level singletons.
package client
