package exports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupThrottle(t *testing.T) (*Throttle, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewThrottleWithClock(client, func() time.Time { return base }), srv
}

func retryAfter(t *testing.T, err error) time.Duration {
	t.Helper()

	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	return limited.RetryAfter
}

func TestThrottleWindow(t *testing.T) {
	ctx := context.Background()
	throttle, srv := setupThrottle(t)

	t.Run("first export reserves the window", func(t *testing.T) {
		err := throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second)
		require.NoError(t, err)
	})

	t.Run("retry inside the window reports the remaining wait", func(t *testing.T) {
		srv.FastForward(30 * time.Second)

		err := throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second)
		assert.Equal(t, 30*time.Second, retryAfter(t, err))
	})

	t.Run("retry after expiry succeeds", func(t *testing.T) {
		srv.FastForward(31 * time.Second) // t = 61s

		err := throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second)
		require.NoError(t, err)
	})
}

func TestThrottleDisabled(t *testing.T) {
	ctx := context.Background()
	throttle, srv := setupThrottle(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, throttle.CheckAndReserve(ctx, "api-1", "actor-a", 0))
		require.NoError(t, throttle.CheckAndReserve(ctx, "api-1", "actor-a", -1))
	}

	// Nothing reserved.
	assert.Empty(t, srv.Keys())
}

func TestThrottleKeyIsolation(t *testing.T) {
	ctx := context.Background()
	throttle, _ := setupThrottle(t)

	require.NoError(t, throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second))

	// Different actor, same document.
	require.NoError(t, throttle.CheckAndReserve(ctx, "api-1", "actor-b", 60*time.Second))

	// Different document, same actor.
	require.NoError(t, throttle.CheckAndReserve(ctx, "api-2", "actor-a", 60*time.Second))

	// The original key is still reserved.
	err := throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second)
	assert.Positive(t, retryAfter(t, err))
}

func TestThrottleConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	throttle, _ := setupThrottle(t)

	const n = 16

	var wg sync.WaitGroup
	results := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var limited *RateLimitedError
		require.True(t, errors.As(err, &limited))
		assert.Positive(t, limited.RetryAfter)
	}
	assert.Equal(t, 1, succeeded)
}

func TestThrottleRoundsRemainingUp(t *testing.T) {
	ctx := context.Background()
	throttle, srv := setupThrottle(t)

	require.NoError(t, throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second))
	srv.FastForward(59500 * time.Millisecond)

	err := throttle.CheckAndReserve(ctx, "api-1", "actor-a", 60*time.Second)
	assert.Equal(t, time.Second, retryAfter(t, err))
}
