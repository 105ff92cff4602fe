package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryBounded runs fn with exponential backoff until it succeeds, returns
// a permanent error, the attempt budget is spent, or ctx is done. Store
// and oracle calls go through this so transient collaborator failures are
// absorbed at the executor boundary instead of corrupting ticket state.
func retryBounded(ctx context.Context, maxRetries uint64, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	return backoff.Retry(fn, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))
}
