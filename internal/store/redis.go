package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/qikurl/internal/shortener"
)

// RedisCache is a Redis implementation of shortener.Cache.
type RedisCache struct {
	client *redis.Client
	prefix string // "qik:" for code->serialized short url
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "qik:",
	}
}

func (r *RedisCache) Get(ctx context.Context, code shortener.Code) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrCacheMiss
		}

		return nil, err
	}

	return data, nil
}

func (r *RedisCache) Set(ctx context.Context, code shortener.Code, value []byte, ttl time.Duration) error {
	if ttl < time.Second {
		return ErrInvalidTTL
	}

	return r.client.Set(ctx, r.key(code), value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, code shortener.Code) error {
	return r.client.Del(ctx, r.key(code)).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) key(code shortener.Code) string {
	return r.prefix + string(code)
}

// RateLimitRedisStore is a Redis implementation of ratelimit.Store using fixed windows.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{
		client: client,
		prefix: "rl:",
	}
}

// Record increments the counter for key. The first hit of a window starts its expiry.
func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := s.prefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err = s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, err
		}
	}

	return count, nil
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
