package query

import (
	"context"
	"time"
)

// RetryOnce wraps a fetcher with a single retry after delay. The
// runner itself never retries; this is the consumer-level policy for
// reads that should shrug off one transient failure.
//
// retryIf decides whether the first error is worth retrying; nil
// retries every error. Context cancellation aborts the wait.
func RetryOnce(fetch Fetcher, delay time.Duration, retryIf func(error) bool) Fetcher {
	if retryIf == nil {
		retryIf = func(err error) bool { return err != nil }
	}
	return func(ctx context.Context) (any, error) {
		data, err := fetch(ctx)
		if err == nil || !retryIf(err) {
			return data, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		return fetch(ctx)
	}
}

// Data extracts a typed value from an entry's Data field. The second
// return is false when the entry carries no data or a different type.
func Data[T any](data any) (T, bool) {
	v, ok := data.(T)
	return v, ok
}
