package store

import "errors"

// ErrStaleWrite is returned by CompleteFetch when a superseded
// request's result arrives after a newer request was issued for
// the same key. Internal bookkeeping only; callers discard it and
// must never surface it to consumers.
var ErrStaleWrite = errors.New("store: stale fetch result discarded")
