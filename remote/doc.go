// Package remote implements the typed client for the library
// backend's REST API. It is the only place network I/O happens and
// the boundary where loosely-shaped response envelopes are normalized
// into the canonical domain types the cache stores.
//
// Every operation returns either a decoded value or a classified
// error from the taxonomy in errors.go; callers never see raw HTTP
// details.
package remote
