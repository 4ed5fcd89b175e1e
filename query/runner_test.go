package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bookyhq/booksync/store"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestRunner(clock *testClock) (*Runner, *store.Store) {
	s := store.New(map[string]time.Duration{
		"books": 2 * time.Minute,
	}, store.WithClock(clock.now))
	return NewRunner(s, WithClock(clock.now)), s
}

// countingFetcher counts invocations and returns a fixed result.
func countingFetcher(calls *atomic.Int32, data any, err error) Fetcher {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return data, err
	}
}

func TestRunner_FetchesOnFirstUse(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	var calls atomic.Int32
	e, err := r.EnsureFresh(context.Background(), key, countingFetcher(&calls, "page-1", nil))
	if err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}
	if e.Data != "page-1" {
		t.Errorf("Data = %v, want page-1", e.Data)
	}
	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", calls.Load())
	}
}

func TestRunner_FreshHitSkipsFetch(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	var calls atomic.Int32
	fetch := countingFetcher(&calls, "page-1", nil)

	if _, err := r.EnsureFresh(context.Background(), key, fetch); err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}
	if _, err := r.EnsureFresh(context.Background(), key, fetch); err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1 (second read served from cache)", calls.Load())
	}
}

func TestRunner_StaleEntryRefetches(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	var calls atomic.Int32
	fetch := countingFetcher(&calls, "page-1", nil)

	if _, err := r.EnsureFresh(context.Background(), key, fetch); err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}

	clock.advance(3 * time.Minute)
	if _, err := r.EnsureFresh(context.Background(), key, fetch); err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("fetch calls = %d, want 2", calls.Load())
	}
}

func TestRunner_ConcurrentCallersShareOneFetch(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "page-1", nil
	}

	const n = 10
	var wg sync.WaitGroup
	results := make([]store.Entry, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.EnsureFresh(context.Background(), key, fetch)
		}(i)
	}

	// Let all callers join the flight before it settles.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1 for %d concurrent callers", calls.Load(), n)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d error = %v", i, errs[i])
		}
		if results[i].Data != "page-1" {
			t.Errorf("caller %d Data = %v, want page-1", i, results[i].Data)
		}
	}
}

func TestRunner_FetchErrorReturnedWithEntry(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	var calls atomic.Int32
	if _, err := r.EnsureFresh(context.Background(), key, countingFetcher(&calls, "page-1", nil)); err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}

	clock.advance(3 * time.Minute)
	fetchErr := errors.New("backend down")
	e, err := r.EnsureFresh(context.Background(), key, countingFetcher(&calls, nil, fetchErr))

	if err != fetchErr {
		t.Errorf("error = %v, want %v", err, fetchErr)
	}
	if e.Status != store.StatusError {
		t.Errorf("Status = %v, want %v", e.Status, store.StatusError)
	}
	if e.Data != "page-1" {
		t.Errorf("Data = %v, want prior data alongside the error", e.Data)
	}
}

func TestRunner_ReadReturnsImmediately(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	settled := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		defer close(settled)
		return "page-1", nil
	}

	// First read: nothing cached, returns idle and refreshes behind.
	e := r.Read(context.Background(), key, fetch)
	if e.Status != store.StatusIdle {
		t.Errorf("Status = %v, want %v on cold read", e.Status, store.StatusIdle)
	}

	select {
	case <-settled:
	case <-time.After(time.Second):
		t.Fatal("background refresh never ran")
	}
}

func TestRunner_ReadSurvivesCallerCancellation(t *testing.T) {
	clock := newTestClock()
	r, s := newTestRunner(clock)
	key := store.NewKey("books", nil)

	settled := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		defer close(settled)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "page-1", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.Read(ctx, key, fetch)
	cancel()

	select {
	case <-settled:
	case <-time.After(time.Second):
		t.Fatal("background refresh never ran")
	}

	// The refresh detached from the caller's context, so it commits.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.Read(key).Data == "page-1" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("Data = %v, want page-1 committed despite cancellation", s.Read(key).Data)
}

func TestRunner_RefetchBypassesFreshness(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	var calls atomic.Int32
	fetch := countingFetcher(&calls, "page-1", nil)

	if _, err := r.EnsureFresh(context.Background(), key, fetch); err != nil {
		t.Fatalf("EnsureFresh() error = %v", err)
	}
	if _, err := r.Refetch(context.Background(), key, fetch); err != nil {
		t.Fatalf("Refetch() error = %v", err)
	}

	if calls.Load() != 2 {
		t.Errorf("fetch calls = %d, want 2 (refetch ignores freshness)", calls.Load())
	}
}

func TestRunner_PrefetchSwallowsFetchErrors(t *testing.T) {
	clock := newTestClock()
	r, s := newTestRunner(clock)
	good := store.NewKey("books", map[string]string{"page": "1"})
	bad := store.NewKey("books", map[string]string{"page": "2"})

	err := r.Prefetch(context.Background(),
		PrefetchPair{Key: good, Fetch: func(ctx context.Context) (any, error) {
			return "ok", nil
		}},
		PrefetchPair{Key: bad, Fetch: func(ctx context.Context) (any, error) {
			return nil, errors.New("boom")
		}},
	)
	if err != nil {
		t.Fatalf("Prefetch() error = %v, want nil (failures land in entries)", err)
	}

	if s.Read(good).Data != "ok" {
		t.Errorf("good Data = %v, want ok", s.Read(good).Data)
	}
	if s.Read(bad).Status != store.StatusError {
		t.Errorf("bad Status = %v, want %v", s.Read(bad).Status, store.StatusError)
	}
}

func TestHandle_GetAndSnapshot(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	h := r.Handle(key, func(ctx context.Context) (any, error) {
		return "page-1", nil
	})

	if h.Snapshot().Status != store.StatusIdle {
		t.Errorf("Snapshot Status = %v, want idle before first Get", h.Snapshot().Status)
	}

	e, err := h.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if e.Data != "page-1" {
		t.Errorf("Data = %v, want page-1", e.Data)
	}
	if h.Snapshot().Data != "page-1" {
		t.Errorf("Snapshot Data = %v, want page-1", h.Snapshot().Data)
	}
}

func TestHandle_WatchSeesRefetch(t *testing.T) {
	clock := newTestClock()
	r, _ := newTestRunner(clock)
	key := store.NewKey("books", nil)

	h := r.Handle(key, func(ctx context.Context) (any, error) {
		return "page-1", nil
	})

	var mu sync.Mutex
	var statuses []store.Status
	unwatch := h.Watch(func(e store.Entry) {
		mu.Lock()
		statuses = append(statuses, e.Status)
		mu.Unlock()
	})
	defer unwatch()

	if _, err := h.Get(context.Background()); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) < 2 {
		t.Fatalf("notifications = %d, want loading then success", len(statuses))
	}
	if statuses[0] != store.StatusLoading {
		t.Errorf("first status = %v, want %v", statuses[0], store.StatusLoading)
	}
	if statuses[len(statuses)-1] != store.StatusSuccess {
		t.Errorf("last status = %v, want %v", statuses[len(statuses)-1], store.StatusSuccess)
	}
}

func TestRetryOnce_SecondAttemptSucceeds(t *testing.T) {
	var calls atomic.Int32
	fetch := RetryOnce(func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	}, time.Millisecond, nil)

	data, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if data != "ok" {
		t.Errorf("data = %v, want ok", data)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestRetryOnce_RespectsRetryIf(t *testing.T) {
	var calls atomic.Int32
	permanent := errors.New("permanent")
	fetch := RetryOnce(func(ctx context.Context) (any, error) {
		calls.Add(1)
		return nil, permanent
	}, time.Millisecond, func(err error) bool { return false })

	if _, err := fetch(context.Background()); err != permanent {
		t.Errorf("error = %v, want %v", err, permanent)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (not retried)", calls.Load())
	}
}

func TestRetryOnce_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetch := RetryOnce(func(ctx context.Context) (any, error) {
		cancel()
		return nil, errors.New("transient")
	}, time.Minute, nil)

	if _, err := fetch(ctx); err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
