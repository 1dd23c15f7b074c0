// Package retry provides a generic call-with-retry helper parameterized by an
// explicit policy value, usable by any fallible external call.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded retry schedule: at most MaxAttempts total calls,
// exponential backoff starting at InitialInterval, doubling, capped at
// MaxInterval, no jitter.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Permanent marks err as non-retryable: Do returns it immediately without
// consuming further attempts.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do invokes op under the policy, sleeping between attempts, and returns the
// last error once attempts are exhausted or the context is cancelled.
func Do(ctx context.Context, p Policy, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithContext(bo, ctx)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}

	return backoff.Retry(op, b)
}
