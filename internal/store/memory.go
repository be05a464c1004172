package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/qikurl/internal/shortener"
)

// ErrInvalidTTL is returned by caches for TTLs shorter than one second.
var ErrInvalidTTL = errors.New("cache ttl must be at least one second")

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu   sync.RWMutex
	urls map[shortener.Code]shortener.ShortURL
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		urls: make(map[shortener.Code]shortener.ShortURL),
	}
}

func (m *MemoryStore) Put(_ context.Context, shortURL *shortener.ShortURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.urls[shortURL.Code] = *shortURL

	return nil
}

func (m *MemoryStore) Get(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	shortURL, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &shortURL, nil
}

func (m *MemoryStore) IncrementClicks(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shortURL, ok := m.urls[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	shortURL.ClickCount++
	m.urls[code] = shortURL

	return &shortURL, nil
}

func (m *MemoryStore) Delete(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.urls, code)

	return nil
}

func (m *MemoryStore) DeleteUnconsumed(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shortURL, ok := m.urls[code]
	if !ok || shortURL.ClickCount > 0 {
		return false, nil
	}

	delete(m.urls, code)

	return true, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-memory implementation of shortener.Cache with per-key TTLs.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[shortener.Code]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates a cache that uses now to decide expiry.
// A nil now means time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}

	return &MemoryCache{
		entries: make(map[shortener.Code]cacheEntry),
		now:     now,
	}
}

func (c *MemoryCache) Get(_ context.Context, code shortener.Code) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[code]
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, code)

		return nil, shortener.ErrCacheMiss
	}

	return entry.value, nil
}

func (c *MemoryCache) Set(_ context.Context, code shortener.Code, value []byte, ttl time.Duration) error {
	if ttl < time.Second {
		return ErrInvalidTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[code] = cacheEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

func (c *MemoryCache) Delete(_ context.Context, code shortener.Code) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, code)

	return nil
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// TTL returns the time left for code, or zero when it is not cached.
func (c *MemoryCache) TTL(code shortener.Code) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[code]
	if !ok {
		return 0
	}

	if ttl := entry.expiresAt.Sub(c.now()); ttl > 0 {
		return ttl
	}

	return 0
}

// NoopCache never stores anything. Every Get is a miss.
type NoopCache struct{}

func (NoopCache) Get(context.Context, shortener.Code) ([]byte, error) {
	return nil, shortener.ErrCacheMiss
}

func (NoopCache) Set(context.Context, shortener.Code, []byte, time.Duration) error {
	return nil
}

func (NoopCache) Delete(context.Context, shortener.Code) error {
	return nil
}

func (NoopCache) Ping(context.Context) error {
	return nil
}

// Compile-time checks.
var (
	_ shortener.Repository = (*MemoryStore)(nil)
	_ shortener.Cache      = (*MemoryCache)(nil)
	_ shortener.Cache      = NoopCache{}
)
