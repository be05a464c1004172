package shortener

import (
	"context"
	"time"
)

// Repository is the durable source of truth for short URLs.
type Repository interface {
	// Put stores the short URL, overwriting any existing record with the same code.
	Put(ctx context.Context, shortURL *ShortURL) error
	// Get returns ErrNotFound when the code does not exist.
	Get(ctx context.Context, code Code) (*ShortURL, error)
	// IncrementClicks atomically adds one click and returns the updated record.
	// It returns ErrNotFound when the code does not exist.
	IncrementClicks(ctx context.Context, code Code) (*ShortURL, error)
	// Delete removes the code. Deleting an absent code is not an error.
	Delete(ctx context.Context, code Code) error
	// DeleteUnconsumed removes the code only while its click count is still zero.
	// It reports whether this call removed the record.
	DeleteUnconsumed(ctx context.Context, code Code) (bool, error)
	Ping(ctx context.Context) error
}

// Cache is an ephemeral key-value shadow of the repository.
type Cache interface {
	// Get returns ErrCacheMiss for absent keys.
	Get(ctx context.Context, code Code) ([]byte, error)
	Set(ctx context.Context, code Code, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, code Code) error
	Ping(ctx context.Context) error
}

// Evictor retries cache deletions that failed inline.
type Evictor interface {
	Evict(ctx context.Context, code Code, reason string) error
}

// Metrics records operation outcomes and cache degradation.
type Metrics interface {
	CacheError(op string)
	Observe(op, outcome string, elapsed time.Duration)
}

type noopEvictor struct{}

func (noopEvictor) Evict(context.Context, Code, string) error { return nil }

type noopMetrics struct{}

func (noopMetrics) CacheError(string) {}

func (noopMetrics) Observe(string, string, time.Duration) {}
