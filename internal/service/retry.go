package service

import (
	"context"
	"time"
)

// RetryPolicy bounds a retried operation: at most Attempts calls with a
// fixed Backoff between them.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Retry calls fn until it succeeds or the policy is exhausted and returns
// the last error. Attempts are numbered from 1. A cancelled context stops
// the loop between attempts.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	attempts := max(p.Attempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
