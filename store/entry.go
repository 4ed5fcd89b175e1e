package store

import "time"

// Status is the fetch lifecycle state of a cache entry.
type Status string

// Valid entry statuses.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is the cached state for one Key.
//
// Invariants:
// - StatusSuccess implies Data is set and FetchedAt is non-zero.
// - StatusError implies Err is set; Data retains the last successful
//   value if there was one (stale-while-error, never silently cleared).
type Entry struct {
	Key        Key
	Data       any
	Status     Status
	Err        error
	FetchedAt  time.Time
	StaleAfter time.Duration
}

// Fresh reports whether the entry can be served without a refetch:
// a successful fetch younger than its staleness window.
func (e Entry) Fresh(now time.Time) bool {
	if e.Status != StatusSuccess || e.FetchedAt.IsZero() {
		return false
	}
	if e.StaleAfter <= 0 {
		return false
	}
	return now.Sub(e.FetchedAt) < e.StaleAfter
}

// HasData reports whether the entry carries displayable data,
// regardless of status.
func (e Entry) HasData() bool {
	return e.Data != nil
}
