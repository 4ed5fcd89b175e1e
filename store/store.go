package store

import (
	"sync"
	"time"
)

// Subscriber receives the new entry after any write to a key it
// watches. Callbacks run synchronously after the write commits and
// must not call back into the store's write methods.
type Subscriber func(Entry)

// Store is the single source of truth for fetched and derived entity
// state. It is constructed explicitly and injected into the query
// runner and mutation coordinator; there is no package-level instance.
type Store struct {
	mu            sync.RWMutex
	entries       map[string]Entry
	reqIDs        map[string]uint64
	invalSeqs     map[string]uint64
	flightSeqs    map[string]uint64
	staleDefaults map[string]time.Duration

	subMu     sync.Mutex
	nextSubID int
	keySubs   map[string]map[int]Subscriber
	famSubs   map[string]map[int]Subscriber

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store. staleDefaults maps an entity family to
// the staleness window applied to entries of that family; families
// without a default get zero (always stale, refetch on every read).
func New(staleDefaults map[string]time.Duration, opts ...Option) *Store {
	defaults := make(map[string]time.Duration, len(staleDefaults))
	for family, d := range staleDefaults {
		defaults[family] = d
	}
	s := &Store{
		entries:       make(map[string]Entry),
		reqIDs:        make(map[string]uint64),
		invalSeqs:     make(map[string]uint64),
		flightSeqs:    make(map[string]uint64),
		staleDefaults: defaults,
		keySubs:       make(map[string]map[int]Subscriber),
		famSubs:       make(map[string]map[int]Subscriber),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the current entry for key. Missing keys read as an
// idle entry carrying the family's default staleness. Never blocks on
// network activity.
func (s *Store) Read(key Key) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readLocked(key)
}

func (s *Store) readLocked(key Key) Entry {
	if e, ok := s.entries[key.ID()]; ok {
		return e
	}
	return Entry{
		Key:        key,
		Status:     StatusIdle,
		StaleAfter: s.staleDefaults[key.Family],
	}
}

// Write atomically replaces the entry for key with patch(prev) and
// notifies subscribers of the key and its family.
func (s *Store) Write(key Key, patch func(prev Entry) Entry) Entry {
	s.mu.Lock()
	prev := s.readLocked(key)
	next := patch(prev)
	next.Key = key
	s.entries[key.ID()] = next
	s.mu.Unlock()

	s.notify(next)
	return next
}

// InvalidateFamily marks every entry of the family stale without
// clearing its data, so the next read refetches while the UI keeps
// showing what it has. Fetches already in flight for affected keys
// commit stale too; the invalidation outranks their result.
func (s *Store) InvalidateFamily(family string) {
	s.mu.Lock()
	changed := make([]Entry, 0, 4)
	for id, e := range s.entries {
		if e.Key.Family != family {
			continue
		}
		e.StaleAfter = 0
		s.entries[id] = e
		s.invalSeqs[id]++
		changed = append(changed, e)
	}
	s.mu.Unlock()

	for _, e := range changed {
		s.notify(e)
	}
}

// InvalidateKey marks a single entry stale without clearing its data.
// A fetch already in flight for the key commits stale too.
func (s *Store) InvalidateKey(key Key) {
	s.mu.Lock()
	s.invalSeqs[key.ID()]++
	e := s.readLocked(key)
	e.StaleAfter = 0
	s.entries[key.ID()] = e
	s.mu.Unlock()

	s.notify(e)
}

// KeysInFamily returns the keys of every entry currently held for the
// family, in no particular order.
func (s *Store) KeysInFamily(family string) []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []Key
	for _, e := range s.entries {
		if e.Key.Family == family {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// BeginFetch transitions the entry to loading, preserving existing
// data for stale-while-revalidate display, and issues a new request
// ID for the key. Only the result committed with the latest issued ID
// is ever applied.
func (s *Store) BeginFetch(key Key) uint64 {
	s.mu.Lock()
	id := s.reqIDs[key.ID()] + 1
	s.reqIDs[key.ID()] = id
	s.flightSeqs[key.ID()] = s.invalSeqs[key.ID()]

	e := s.readLocked(key)
	e.Status = StatusLoading
	e.Err = nil
	s.entries[key.ID()] = e
	s.mu.Unlock()

	s.notify(e)
	return id
}

// CompleteFetch commits the result of the fetch issued as reqID.
// If a newer request was issued for the key in the meantime, the
// result is discarded and ErrStaleWrite returned: last request wins,
// not last response received.
//
// On success the entry becomes StatusSuccess with fresh data and
// timestamp. On fetch error the entry becomes StatusError with the
// prior data retained. A result whose key was invalidated after the
// fetch began commits with a zero staleness window: the data lands,
// but the entry stays stale and the next read refetches.
func (s *Store) CompleteFetch(key Key, reqID uint64, data any, fetchErr error) (Entry, error) {
	s.mu.Lock()
	if s.reqIDs[key.ID()] != reqID {
		e := s.readLocked(key)
		s.mu.Unlock()
		return e, ErrStaleWrite
	}

	e := s.readLocked(key)
	if fetchErr != nil {
		e.Status = StatusError
		e.Err = fetchErr
	} else {
		e.Status = StatusSuccess
		e.Err = nil
		e.Data = data
		e.FetchedAt = s.now()
		switch {
		case s.invalSeqs[key.ID()] != s.flightSeqs[key.ID()]:
			// Invalidated while this fetch was in flight. The response
			// predates the invalidation, so it must not count as fresh.
			e.StaleAfter = 0
		case e.StaleAfter <= 0:
			// Invalidated before the fetch began, or first write:
			// restore the family default.
			e.StaleAfter = s.staleDefaults[key.Family]
		}
	}
	s.entries[key.ID()] = e
	s.mu.Unlock()

	s.notify(e)
	return e, nil
}

// Subscribe registers fn for writes to key. The returned function
// removes the subscription.
func (s *Store) Subscribe(key Key, fn Subscriber) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	subs, ok := s.keySubs[key.ID()]
	if !ok {
		subs = make(map[int]Subscriber)
		s.keySubs[key.ID()] = subs
	}
	subs[id] = fn

	keyID := key.ID()
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.keySubs[keyID], id)
	}
}

// SubscribeFamily registers fn for writes to any key in the family.
func (s *Store) SubscribeFamily(family string, fn Subscriber) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	subs, ok := s.famSubs[family]
	if !ok {
		subs = make(map[int]Subscriber)
		s.famSubs[family] = subs
	}
	subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.famSubs[family], id)
	}
}

// notify delivers the entry to key and family subscribers. The
// subscriber list is copied so callbacks run without any store lock.
func (s *Store) notify(e Entry) {
	s.subMu.Lock()
	fns := make([]Subscriber, 0, 4)
	for _, fn := range s.keySubs[e.Key.ID()] {
		fns = append(fns, fn)
	}
	for _, fn := range s.famSubs[e.Key.Family] {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
