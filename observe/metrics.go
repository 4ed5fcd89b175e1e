package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// QueryOutcome classifies how a query read was satisfied.
type QueryOutcome string

// Query outcomes.
const (
	OutcomeHit     QueryOutcome = "hit"     // fresh cache hit, no network
	OutcomeDedup   QueryOutcome = "dedup"   // joined an in-flight fetch
	OutcomeFetch   QueryOutcome = "fetch"   // issued a network call
	OutcomeError   QueryOutcome = "error"   // fetch settled with an error
	OutcomeStale   QueryOutcome = "stale"   // served stale data, refresh kicked
)

// Metrics records execution metrics for queries and mutations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordQuery records one query read and how it was satisfied.
	RecordQuery(ctx context.Context, meta OpMeta, outcome QueryOutcome, duration time.Duration)

	// RecordMutation records one mutation settlement. rolledBack is
	// true when the optimistic patch was restored after a failure.
	RecordMutation(ctx context.Context, meta OpMeta, duration time.Duration, err error, rolledBack bool)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	queryCount    metric.Int64Counter
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	dedupCount    metric.Int64Counter
	queryDuration metric.Float64Histogram

	mutationCount  metric.Int64Counter
	mutationErrors metric.Int64Counter
	rollbackCount  metric.Int64Counter
	mutateDuration metric.Float64Histogram
}

// newMetrics creates the instrument set on the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.queryCount, err = meter.Int64Counter(
		"sync.query.total",
		metric.WithDescription("Total number of query reads"),
		metric.WithUnit("{read}"),
	); err != nil {
		return nil, err
	}
	if m.cacheHits, err = meter.Int64Counter(
		"sync.cache.hits",
		metric.WithDescription("Query reads served fresh from cache"),
		metric.WithUnit("{read}"),
	); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = meter.Int64Counter(
		"sync.cache.misses",
		metric.WithDescription("Query reads that required a fetch"),
		metric.WithUnit("{read}"),
	); err != nil {
		return nil, err
	}
	if m.dedupCount, err = meter.Int64Counter(
		"sync.query.dedup",
		metric.WithDescription("Query reads coalesced onto an in-flight fetch"),
		metric.WithUnit("{read}"),
	); err != nil {
		return nil, err
	}
	if m.queryDuration, err = meter.Float64Histogram(
		"sync.query.duration_ms",
		metric.WithDescription("Query read duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.mutationCount, err = meter.Int64Counter(
		"sync.mutate.total",
		metric.WithDescription("Total number of mutations executed"),
		metric.WithUnit("{mutation}"),
	); err != nil {
		return nil, err
	}
	if m.mutationErrors, err = meter.Int64Counter(
		"sync.mutate.errors",
		metric.WithDescription("Mutations that settled with an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.rollbackCount, err = meter.Int64Counter(
		"sync.mutate.rollbacks",
		metric.WithDescription("Optimistic patches rolled back after failure"),
		metric.WithUnit("{rollback}"),
	); err != nil {
		return nil, err
	}
	if m.mutateDuration, err = meter.Float64Histogram(
		"sync.mutate.duration_ms",
		metric.WithDescription("Mutation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordQuery(ctx context.Context, meta OpMeta, outcome QueryOutcome, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("sync.family", meta.Family),
		attribute.String("sync.outcome", string(outcome)),
	)

	m.queryCount.Add(ctx, 1, opt)
	switch outcome {
	case OutcomeHit, OutcomeStale:
		m.cacheHits.Add(ctx, 1, opt)
	case OutcomeFetch, OutcomeError:
		m.cacheMisses.Add(ctx, 1, opt)
	case OutcomeDedup:
		m.dedupCount.Add(ctx, 1, opt)
	}
	m.queryDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordMutation(ctx context.Context, meta OpMeta, duration time.Duration, err error, rolledBack bool) {
	opt := metric.WithAttributes(
		attribute.String("sync.kind", meta.Kind),
	)

	m.mutationCount.Add(ctx, 1, opt)
	if err != nil {
		m.mutationErrors.Add(ctx, 1, opt)
	}
	if rolledBack {
		m.rollbackCount.Add(ctx, 1, opt)
	}
	m.mutateDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NoopMetrics returns a Metrics that records nothing.
func NoopMetrics() Metrics { return &noopMetrics{} }

func (m *noopMetrics) RecordQuery(ctx context.Context, meta OpMeta, outcome QueryOutcome, duration time.Duration) {
}

func (m *noopMetrics) RecordMutation(ctx context.Context, meta OpMeta, duration time.Duration, err error, rolledBack bool) {
}

// Ensure implementations satisfy Metrics.
var (
	_ Metrics = (*metricsImpl)(nil)
	_ Metrics = (*noopMetrics)(nil)
)
