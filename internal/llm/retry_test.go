package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(), "openai", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return apperr.New(apperr.KindNetwork, "timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(), "openai", func(ctx context.Context) error {
		calls++
		return apperr.New(apperr.KindAuthFailed, "bad key")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthFailed))
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastPolicy(), "openai", func(ctx context.Context) error {
		calls++
		return apperr.New(apperr.KindRateLimited, "slow down")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, fastPolicy(), "openai", func(ctx context.Context) error {
		calls++
		cancel()
		return apperr.New(apperr.KindNetwork, "timeout")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || apperr.IsKind(err, apperr.KindNetwork))
}
