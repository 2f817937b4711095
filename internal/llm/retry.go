package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/pkg/metrics"
)

// RetryPolicy configures the exponential-backoff-with-full-jitter retry
// §4.2 prescribes: base 500ms, cap 8s, up to 3 total attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is §4.2's policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second}
}

// DefaultBlockingDeadline and DefaultStreamingDeadline are §5's per-adapter-
// invocation deadlines. A breach classifies as a KindNetwork error (the
// provider adapters' classify*Error already fall through to KindNetwork for
// anything that isn't a recognized API error), so it enters the same §4.2
// retry policy as any other transient failure.
const (
	DefaultBlockingDeadline  = 60 * time.Second
	DefaultStreamingDeadline = 120 * time.Second
)

// WithRetry runs op, retrying on §4.2's retryable error kinds
// (Network, RateLimited, ProviderError 5xx) up to policy.MaxAttempts total
// attempts. Non-retryable errors (AuthFailed, ProviderError 4xx) return
// immediately. ctx cancellation aborts the retry loop without a further
// attempt. provider labels the retry-attempt metric.
func WithRetry(ctx context.Context, policy RetryPolicy, provider string, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.BaseDelay
	b.MaxInterval = policy.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 1 // full jitter
	b.MaxElapsedTime = 0      // bounded by attempt count, not wall time

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	withCtx := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	first := true
	return backoff.Retry(func() error {
		if !first {
			metrics.RecordRetryAttempt(provider)
		}
		first = false

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !apperr.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, withCtx)
}
