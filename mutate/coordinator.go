package mutate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookyhq/booksync/observe"
	"github.com/bookyhq/booksync/store"
)

// CommitFunc performs the remote call for a mutation and returns its
// settled result.
type CommitFunc func(ctx context.Context) (any, error)

// Patch is one speculative cache transform applied before the commit
// resolves. Apply receives the entry's current data (possibly nil)
// and must return a replacement value, never mutate in place.
type Patch struct {
	Key   store.Key
	Apply func(prev any) any
}

// Request describes one mutation invocation.
type Request struct {
	Kind Kind

	// Fence coalesces duplicate in-flight intents: a second request
	// with the same kind and fence while one is pending is rejected
	// with ErrInFlight. Empty means unfenced.
	Fence string

	// Patches are optional optimistic transforms.
	Patches []Patch

	Commit CommitFunc
}

// Reconciler propagates the effect of a settled mutation onto a
// different entity's cached state. Runs only on success; its own
// failures must be swallowed internally, never surfaced.
type Reconciler interface {
	Kind() Kind
	Reconcile(ctx context.Context, result any)
}

// mutationContext is the transient per-invocation record: created at
// optimistic-apply time, consumed at settle time.
type mutationContext struct {
	id       string
	snapshot store.Snapshot
}

// Coordinator executes mutations against an injected store and
// remote commit functions. Safe for concurrent use.
type Coordinator struct {
	store       *store.Store
	graph       Graph
	reconcilers []Reconciler

	fenceMu sync.Mutex
	fences  map[string]struct{}

	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
	now     func() time.Time
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithObserver wires telemetry into the coordinator.
func WithObserver(obs observe.Observer) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = obs.Logger()
		c.metrics = obs.Metrics()
		c.tracer = obs.Tracer()
	}
}

// WithReconcilers registers cross-entity reconcilers.
func WithReconcilers(rs ...Reconciler) CoordinatorOption {
	return func(c *Coordinator) {
		c.reconcilers = append(c.reconcilers, rs...)
	}
}

// NewCoordinator creates a coordinator over the given store and
// invalidation graph.
func NewCoordinator(s *store.Store, graph Graph, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		store:   s,
		graph:   graph,
		fences:  make(map[string]struct{}),
		logger:  observe.NoopLogger(),
		metrics: observe.NoopMetrics(),
		tracer:  observe.NewNoopObserver().Tracer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes one mutation through optimistic apply, remote commit,
// and settle.
//
// At any observable instant the store reflects pre-mutation state,
// the optimistic speculative state, or authoritative post-settlement
// state; a failed commit restores the pre-apply snapshot verbatim.
// Mutations with distinct fences are not serialized against each
// other; the post-settle invalidation refetch is the eventual
// consistency backstop.
func (c *Coordinator) Do(ctx context.Context, req Request) (any, error) {
	if req.Commit == nil {
		return nil, ErrNoCommit
	}

	if req.Fence != "" {
		fence := string(req.Kind) + "/" + req.Fence
		c.fenceMu.Lock()
		if _, pending := c.fences[fence]; pending {
			c.fenceMu.Unlock()
			return nil, ErrInFlight
		}
		c.fences[fence] = struct{}{}
		c.fenceMu.Unlock()
		defer func() {
			c.fenceMu.Lock()
			delete(c.fences, fence)
			c.fenceMu.Unlock()
		}()
	}

	meta := observe.MutationMeta(string(req.Kind))
	logger := c.logger.WithOp(meta)
	start := c.now()
	ctx, span := c.tracer.StartSpan(ctx, meta)

	mctx := mutationContext{
		id:       uuid.NewString(),
		snapshot: c.store.Snapshot(c.affectedKeys(req)),
	}
	logger.Debug(ctx, "mutation started",
		observe.F("mutation_id", mctx.id),
		observe.F("affected_keys", mctx.snapshot.Len()))

	for _, p := range req.Patches {
		c.store.Write(p.Key, func(prev store.Entry) store.Entry {
			prev.Data = p.Apply(prev.Data)
			return prev
		})
	}

	result, err := req.Commit(ctx)
	if err != nil {
		c.store.Restore(mctx.snapshot)
		logger.Warn(ctx, "mutation failed, optimistic state restored",
			observe.F("mutation_id", mctx.id),
			observe.F("error", err.Error()))
		c.metrics.RecordMutation(ctx, meta, c.now().Sub(start), err, len(req.Patches) > 0)
		c.tracer.EndSpan(span, err)
		return nil, err
	}

	for _, rec := range c.reconcilers {
		if rec.Kind() == req.Kind {
			rec.Reconcile(ctx, result)
		}
	}

	for _, family := range c.graph.Families(req.Kind) {
		c.store.InvalidateFamily(family)
	}

	logger.Debug(ctx, "mutation settled",
		observe.F("mutation_id", mctx.id))
	c.metrics.RecordMutation(ctx, meta, c.now().Sub(start), nil, false)
	c.tracer.EndSpan(span, nil)
	return result, nil
}

// affectedKeys resolves the keys snapshotted before the optimistic
// apply: every currently-held entry in the kind's graph families,
// plus the patch targets.
func (c *Coordinator) affectedKeys(req Request) []store.Key {
	seen := make(map[string]struct{})
	var keys []store.Key

	add := func(k store.Key) {
		if _, dup := seen[k.ID()]; dup {
			return
		}
		seen[k.ID()] = struct{}{}
		keys = append(keys, k)
	}

	for _, family := range c.graph.Families(req.Kind) {
		for _, k := range c.store.KeysInFamily(family) {
			add(k)
		}
	}
	for _, p := range req.Patches {
		add(p.Key)
	}
	return keys
}
