// Package mutate executes state-changing intents with optimistic UI
// feedback and guaranteed consistency on failure.
//
// A mutation runs in three phases: optimistic apply (speculative
// cache patch so the UI reflects the intended end state immediately),
// remote commit, and settle. On success the declarative invalidation
// graph marks every dependent key family stale so the next read
// refetches authoritative data; the optimistic patch is a
// placeholder, never final truth. On failure the pre-apply snapshot
// is restored verbatim.
//
// Reconcilers encode the few business rules that couple otherwise
// independent entities and that invalidation alone cannot express,
// because they must inspect current data (see CartLoanReconciler).
package mutate
