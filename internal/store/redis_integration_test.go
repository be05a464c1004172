//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/qikurl/internal/shortener"
	"github.com/serroba/qikurl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}

	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedisCacheIntegration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	c := store.NewRedisCache(client)

	t.Run("set and get value", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "abc123", []byte(`{"short_code":"abc123"}`), time.Minute))

		got, err := c.Get(ctx, "abc123")
		require.NoError(t, err)
		assert.JSONEq(t, `{"short_code":"abc123"}`, string(got))

		ttl, err := client.TTL(ctx, "qik:abc123").Result()
		require.NoError(t, err)
		assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)
	})

	t.Run("get non-existent returns ErrCacheMiss", func(t *testing.T) {
		_, err := c.Get(ctx, "nonexistent")

		assert.ErrorIs(t, err, shortener.ErrCacheMiss)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		_ = c.Set(ctx, "gone123", []byte("x"), time.Minute)

		require.NoError(t, c.Delete(ctx, "gone123"))

		_, err := c.Get(ctx, "gone123")
		assert.ErrorIs(t, err, shortener.ErrCacheMiss)
	})

	t.Run("ping succeeds", func(t *testing.T) {
		assert.NoError(t, c.Ping(ctx))
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	s := store.NewRateLimitRedisStore(client)

	t.Run("counts within a window and sets its expiry", func(t *testing.T) {
		first, err := s.Record(ctx, "1.2.3.4", time.Minute)
		require.NoError(t, err)

		second, err := s.Record(ctx, "1.2.3.4", time.Minute)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Equal(t, int64(2), second)

		ttl, err := client.TTL(ctx, "rl:1.2.3.4").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})
}
