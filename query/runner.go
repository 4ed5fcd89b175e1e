package query

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/bookyhq/booksync/observe"
	"github.com/bookyhq/booksync/store"
)

// Fetcher loads one key's data from the remote data source.
type Fetcher func(ctx context.Context) (any, error)

// Runner orchestrates fetch-on-demand per key against an injected
// Store. Safe for concurrent use.
type Runner struct {
	store   *store.Store
	flights singleflight.Group
	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
	now     func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithObserver wires telemetry into the runner.
func WithObserver(obs observe.Observer) RunnerOption {
	return func(r *Runner) {
		r.logger = obs.Logger()
		r.metrics = obs.Metrics()
		r.tracer = obs.Tracer()
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner over the given store.
func NewRunner(s *store.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:   s,
		logger:  observe.NoopLogger(),
		metrics: observe.NoopMetrics(),
		tracer:  observe.NewNoopObserver().Tracer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureFresh returns a fresh entry for key, fetching if necessary.
//
// Fresh successful entries return immediately with no network call.
// If a fetch for the key is already in flight, the call joins it
// rather than issuing a second one; all joined callers observe the
// same settled entry. Otherwise the entry transitions to loading
// (previous data preserved for display), fetch runs, and the result
// commits under the store's last-request-wins guard.
//
// A fetch failure is returned as the error alongside the error-status
// entry; prior data is never cleared.
func (r *Runner) EnsureFresh(ctx context.Context, key store.Key, fetch Fetcher) (store.Entry, error) {
	start := r.now()
	meta := observe.QueryMeta(key.Family)

	if e := r.store.Read(key); e.Fresh(r.now()) {
		r.metrics.RecordQuery(ctx, meta, observe.OutcomeHit, r.now().Sub(start))
		return e, nil
	}

	ctx, span := r.tracer.StartSpan(ctx, meta)

	v, err, shared := r.flights.Do(key.ID(), func() (any, error) {
		// Another flight may have settled between the freshness check
		// and joining; serve its result instead of refetching.
		if e := r.store.Read(key); e.Fresh(r.now()) {
			return e, nil
		}

		reqID := r.store.BeginFetch(key)
		data, fetchErr := fetch(ctx)

		e, commitErr := r.store.CompleteFetch(key, reqID, data, fetchErr)
		if errors.Is(commitErr, store.ErrStaleWrite) {
			// A newer request owns this key now; report its entry.
			r.logger.Debug(ctx, "superseded fetch result discarded",
				observe.F("key", key.ID()))
			return r.store.Read(key), nil
		}
		return e, nil
	})
	if err != nil {
		// The flight function never fails; defensive only.
		r.tracer.EndSpan(span, err)
		return r.store.Read(key), err
	}

	entry := v.(store.Entry)
	outcome := observe.OutcomeFetch
	if shared {
		outcome = observe.OutcomeDedup
	}
	if entry.Status == store.StatusError {
		outcome = observe.OutcomeError
	}
	r.metrics.RecordQuery(ctx, meta, outcome, r.now().Sub(start))
	r.tracer.EndSpan(span, entry.Err)

	if entry.Status == store.StatusError {
		return entry, entry.Err
	}
	return entry, nil
}

// Read returns the current entry immediately and, when the entry is
// stale or idle, kicks a background refresh: stale-while-revalidate.
// The returned entry may carry old data; subscribers see the refresh
// land when it settles.
//
// The background refresh detaches from the caller's cancellation. An
// abandoned consumer's refresh still commits to the shared store.
func (r *Runner) Read(ctx context.Context, key store.Key, fetch Fetcher) store.Entry {
	e := r.store.Read(key)
	if e.Fresh(r.now()) || e.Status == store.StatusLoading {
		r.metrics.RecordQuery(ctx, observe.QueryMeta(key.Family), observe.OutcomeHit, 0)
		return e
	}

	r.metrics.RecordQuery(ctx, observe.QueryMeta(key.Family), observe.OutcomeStale, 0)
	bg := context.WithoutCancel(ctx)
	go func() {
		if _, err := r.EnsureFresh(bg, key, fetch); err != nil {
			r.logger.Warn(bg, "background refresh failed",
				observe.F("key", key.ID()),
				observe.F("error", err.Error()))
		}
	}()
	return e
}

// Refetch forces a fetch regardless of freshness by invalidating the
// key first. Used by the consumer-facing refetch affordance.
func (r *Runner) Refetch(ctx context.Context, key store.Key, fetch Fetcher) (store.Entry, error) {
	r.store.InvalidateKey(key)
	return r.EnsureFresh(ctx, key, fetch)
}

// PrefetchPair binds a key to its fetcher for Prefetch.
type PrefetchPair struct {
	Key   store.Key
	Fetch Fetcher
}

// Prefetch warms several keys concurrently. Individual fetch failures
// are recorded in their entries but do not fail the prefetch; only a
// context cancellation is returned.
func (r *Runner) Prefetch(ctx context.Context, pairs ...PrefetchPair) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range pairs {
		g.Go(func() error {
			if _, err := r.EnsureFresh(ctx, p.Key, p.Fetch); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	return g.Wait()
}

// Store returns the underlying store, for subscription wiring.
func (r *Runner) Store() *store.Store {
	return r.store
}
