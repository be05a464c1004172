package ratelimit

import (
	"context"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// Store keeps the request counters of a FixedWindowLimiter.
type Store interface {
	// Record counts one request for key and returns the count in the current window,
	// this request included. The window opens on the first request for key.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}

// FixedWindowLimiter allows up to limit requests per key in each window.
// The window starts with the first request for a key.
type FixedWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewFixedWindowLimiter creates a new fixed window rate limiter.
func NewFixedWindowLimiter(store Store, limit int64, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Record(ctx, key, l.window)
	if err != nil {
		return false, err
	}

	return count <= l.limit, nil
}

// Limit returns the maximum number of requests per window.
func (l *FixedWindowLimiter) Limit() int64 {
	return l.limit
}

// Window returns the window length.
func (l *FixedWindowLimiter) Window() time.Duration {
	return l.window
}
