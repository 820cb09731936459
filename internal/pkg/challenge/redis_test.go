package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedis(t *testing.T) {
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

	clock := newFakeClock()
	store := NewRedis(client, clock, "test:challenge:")

	t.Run("IssueVerifyConsume", func(t *testing.T) {
		code, _, err := store.Issue(ctx, "acc-1")
		require.NoError(t, err)
		assert.Len(t, code, 6)

		ok, err := store.Verify(ctx, "acc-1", code)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Verify(ctx, "acc-1", code)
		require.NoError(t, err)
		assert.False(t, ok, "replay must fail")
	})

	t.Run("WrongCodeKeepsChallenge", func(t *testing.T) {
		code, _, err := store.Issue(ctx, "acc-2")
		require.NoError(t, err)

		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}

		ok, err := store.Verify(ctx, "acc-2", wrong)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.Verify(ctx, "acc-2", code)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ExpiredByClock", func(t *testing.T) {
		code, _, err := store.Issue(ctx, "acc-3")
		require.NoError(t, err)

		clock.Advance(DefaultTTL + time.Second)

		ok, err := store.Verify(ctx, "acc-3", code)
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := client.Exists(ctx, "test:challenge:acc-3").Result()
		require.NoError(t, err)
		assert.Zero(t, n, "expired key should be deleted")
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, _, err := store.Issue(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyKey)
	})
}
