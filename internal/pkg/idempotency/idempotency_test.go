package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestStateTracker_Do(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	tracker := New(client, "test:idem:")

	t.Run("ReplaysResult", func(t *testing.T) {
		calls := 0
		fn := func(context.Context) (string, error) {
			calls++
			return `{"id":"acc-1"}`, nil
		}

		first, replayed, err := tracker.Do(ctx, "k1", fn)
		require.NoError(t, err)
		assert.False(t, replayed)

		second, replayed, err := tracker.Do(ctx, "k1", fn)
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)
	})

	t.Run("FailureReleasesKey", func(t *testing.T) {
		boom := errors.New("boom")

		_, _, err := tracker.Do(ctx, "k2", func(context.Context) (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)

		got, replayed, err := tracker.Do(ctx, "k2", func(context.Context) (string, error) { return "ok", nil })
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, "ok", got)
	})

	t.Run("InProgress", func(t *testing.T) {
		state, _, err := tracker.Acquire(ctx, "k3", defaultLockDuration)
		require.NoError(t, err)
		require.Equal(t, StateNone, state)

		_, _, err = tracker.Do(ctx, "k3", func(context.Context) (string, error) { return "x", nil })
		assert.ErrorIs(t, err, ErrAlreadyInProgress)
	})
}
