package store

import (
	"errors"
	"testing"
	"time"
)

// testClock is a controllable time source.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(clock *testClock) *Store {
	return New(map[string]time.Duration{
		"books": 2 * time.Minute,
		"cart":  time.Minute,
	}, WithClock(clock.now))
}

func TestStore_ReadMissingKeyIsIdle(t *testing.T) {
	s := newTestStore(newTestClock())
	key := NewKey("books", nil)

	e := s.Read(key)

	if e.Status != StatusIdle {
		t.Errorf("Status = %v, want %v", e.Status, StatusIdle)
	}
	if e.HasData() {
		t.Error("missing key should carry no data")
	}
	if e.StaleAfter != 2*time.Minute {
		t.Errorf("StaleAfter = %v, want family default 2m", e.StaleAfter)
	}
}

func TestStore_ReadNeverBlocks(t *testing.T) {
	s := newTestStore(newTestClock())
	key := NewKey("books", nil)

	// A pending fetch must not make reads wait.
	s.BeginFetch(key)

	done := make(chan struct{})
	go func() {
		s.Read(key)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read blocked while a fetch was pending")
	}
}

func TestStore_FetchLifecycle(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	reqID := s.BeginFetch(key)
	if e := s.Read(key); e.Status != StatusLoading {
		t.Errorf("Status after BeginFetch = %v, want %v", e.Status, StatusLoading)
	}

	e, err := s.CompleteFetch(key, reqID, "page-1", nil)
	if err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}
	if e.Status != StatusSuccess {
		t.Errorf("Status = %v, want %v", e.Status, StatusSuccess)
	}
	if e.Data != "page-1" {
		t.Errorf("Data = %v, want page-1", e.Data)
	}
	if e.FetchedAt != clock.now() {
		t.Errorf("FetchedAt = %v, want %v", e.FetchedAt, clock.now())
	}
	if !e.Fresh(clock.now()) {
		t.Error("entry should be fresh immediately after a successful fetch")
	}
}

func TestStore_FreshnessExpires(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	reqID := s.BeginFetch(key)
	if _, err := s.CompleteFetch(key, reqID, "page-1", nil); err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}

	clock.advance(time.Minute)
	if !s.Read(key).Fresh(clock.now()) {
		t.Error("entry should still be fresh inside the window")
	}

	clock.advance(2 * time.Minute)
	if s.Read(key).Fresh(clock.now()) {
		t.Error("entry should be stale after the window elapses")
	}
}

func TestStore_ErrorRetainsPriorData(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	reqID := s.BeginFetch(key)
	if _, err := s.CompleteFetch(key, reqID, "page-1", nil); err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}

	fetchErr := errors.New("network down")
	reqID = s.BeginFetch(key)
	e, err := s.CompleteFetch(key, reqID, nil, fetchErr)
	if err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}

	if e.Status != StatusError {
		t.Errorf("Status = %v, want %v", e.Status, StatusError)
	}
	if e.Err != fetchErr {
		t.Errorf("Err = %v, want %v", e.Err, fetchErr)
	}
	if e.Data != "page-1" {
		t.Errorf("Data = %v, want prior value retained", e.Data)
	}
}

func TestStore_LastRequestWins(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	first := s.BeginFetch(key)
	second := s.BeginFetch(key)

	// The newer request commits first.
	if _, err := s.CompleteFetch(key, second, "newer", nil); err != nil {
		t.Fatalf("CompleteFetch(second) error = %v", err)
	}

	// The older result arrives late and must be discarded.
	e, err := s.CompleteFetch(key, first, "older", nil)
	if !errors.Is(err, ErrStaleWrite) {
		t.Fatalf("CompleteFetch(first) error = %v, want ErrStaleWrite", err)
	}
	if e.Data != "newer" {
		t.Errorf("Data = %v, want newer result to survive", e.Data)
	}
	if s.Read(key).Data != "newer" {
		t.Errorf("stored Data = %v, want newer", s.Read(key).Data)
	}
}

func TestStore_BeginFetchPreservesData(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	reqID := s.BeginFetch(key)
	if _, err := s.CompleteFetch(key, reqID, "page-1", nil); err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}

	s.BeginFetch(key)
	e := s.Read(key)
	if e.Status != StatusLoading {
		t.Errorf("Status = %v, want %v", e.Status, StatusLoading)
	}
	if e.Data != "page-1" {
		t.Errorf("Data = %v, want stale data kept for display", e.Data)
	}
}

func TestStore_InvalidateFamily(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	booksKey := NewKey("books", map[string]string{"page": "1"})
	cartKey := NewKey("cart", nil)

	for _, key := range []Key{booksKey, cartKey} {
		reqID := s.BeginFetch(key)
		if _, err := s.CompleteFetch(key, reqID, "data", nil); err != nil {
			t.Fatalf("CompleteFetch(%s) error = %v", key.ID(), err)
		}
	}

	s.InvalidateFamily("books")

	books := s.Read(booksKey)
	if books.Fresh(clock.now()) {
		t.Error("invalidated entry should read as stale")
	}
	if books.Data != "data" {
		t.Errorf("Data = %v, want kept after invalidation", books.Data)
	}
	if !s.Read(cartKey).Fresh(clock.now()) {
		t.Error("unrelated family should stay fresh")
	}
}

func TestStore_InvalidateFamilyDuringFetchCommitsStale(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	reqID := s.BeginFetch(key)
	if _, err := s.CompleteFetch(key, reqID, "v1", nil); err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}

	// A background refresh starts, then a mutation invalidates the
	// family before the refresh response lands. That response predates
	// the invalidation and must not re-freshen the entry.
	reqID = s.BeginFetch(key)
	s.InvalidateFamily("books")

	e, err := s.CompleteFetch(key, reqID, "v1-refetch", nil)
	if err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}
	if e.Fresh(clock.now()) {
		t.Error("entry fetched before the invalidation should commit stale")
	}
	if e.StaleAfter != 0 {
		t.Errorf("StaleAfter = %v, want 0 until a post-invalidation fetch lands", e.StaleAfter)
	}
	if e.Data != "v1-refetch" {
		t.Errorf("Data = %v, want the response still recorded", e.Data)
	}

	// The next fetch starts after the invalidation and restores the
	// freshness window.
	reqID = s.BeginFetch(key)
	e, err = s.CompleteFetch(key, reqID, "v2", nil)
	if err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}
	if !e.Fresh(clock.now()) {
		t.Error("post-invalidation fetch should be fresh")
	}
}

func TestStore_InvalidateKeyDuringFetchCommitsStale(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("cart", nil)

	reqID := s.BeginFetch(key)
	s.InvalidateKey(key)

	e, err := s.CompleteFetch(key, reqID, "pre-invalidation", nil)
	if err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}
	if e.Fresh(clock.now()) {
		t.Error("entry fetched before the invalidation should commit stale")
	}
}

func TestStore_RefetchRestoresStalenessWindow(t *testing.T) {
	clock := newTestClock()
	s := newTestStore(clock)
	key := NewKey("books", nil)

	reqID := s.BeginFetch(key)
	if _, err := s.CompleteFetch(key, reqID, "v1", nil); err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}

	s.InvalidateFamily("books")

	reqID = s.BeginFetch(key)
	e, err := s.CompleteFetch(key, reqID, "v2", nil)
	if err != nil {
		t.Fatalf("CompleteFetch() error = %v", err)
	}
	if e.StaleAfter != 2*time.Minute {
		t.Errorf("StaleAfter = %v, want family default restored", e.StaleAfter)
	}
	if !e.Fresh(clock.now()) {
		t.Error("refetched entry should be fresh again")
	}
}

func TestStore_KeysInFamily(t *testing.T) {
	s := newTestStore(newTestClock())
	k1 := NewKey("books", map[string]string{"page": "1"})
	k2 := NewKey("books", map[string]string{"page": "2"})
	k3 := NewKey("cart", nil)

	for _, key := range []Key{k1, k2, k3} {
		s.Write(key, func(prev Entry) Entry {
			prev.Status = StatusSuccess
			prev.Data = "x"
			return prev
		})
	}

	keys := s.KeysInFamily("books")
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
	for _, k := range keys {
		if k.Family != "books" {
			t.Errorf("family = %q, want books", k.Family)
		}
	}
}

func TestStore_SubscribeKey(t *testing.T) {
	s := newTestStore(newTestClock())
	key := NewKey("cart", nil)
	other := NewKey("books", nil)

	var got []Entry
	unsub := s.Subscribe(key, func(e Entry) {
		got = append(got, e)
	})

	s.Write(key, func(prev Entry) Entry {
		prev.Data = "first"
		return prev
	})
	s.Write(other, func(prev Entry) Entry {
		prev.Data = "unrelated"
		return prev
	})

	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Data != "first" {
		t.Errorf("notified Data = %v, want first", got[0].Data)
	}

	unsub()
	s.Write(key, func(prev Entry) Entry {
		prev.Data = "second"
		return prev
	})
	if len(got) != 1 {
		t.Errorf("notifications after unsubscribe = %d, want 1", len(got))
	}
}

func TestStore_SubscribeFamily(t *testing.T) {
	s := newTestStore(newTestClock())

	count := 0
	unsub := s.SubscribeFamily("books", func(Entry) { count++ })
	defer unsub()

	s.Write(NewKey("books", map[string]string{"page": "1"}), func(prev Entry) Entry { return prev })
	s.Write(NewKey("books", map[string]string{"page": "2"}), func(prev Entry) Entry { return prev })
	s.Write(NewKey("cart", nil), func(prev Entry) Entry { return prev })

	if count != 2 {
		t.Errorf("notifications = %d, want 2", count)
	}
}

func TestStore_SubscriberMayReadStore(t *testing.T) {
	s := newTestStore(newTestClock())
	key := NewKey("cart", nil)

	// Callbacks run without the store lock held, so reading back is
	// safe even from within the notification.
	var observed Entry
	unsub := s.Subscribe(key, func(Entry) {
		observed = s.Read(key)
	})
	defer unsub()

	s.Write(key, func(prev Entry) Entry {
		prev.Data = "inner"
		return prev
	})

	if observed.Data != "inner" {
		t.Errorf("observed Data = %v, want inner", observed.Data)
	}
}
