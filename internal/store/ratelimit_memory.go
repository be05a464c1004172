package store

import (
	"context"
	"sync"
	"time"
)

type rateWindow struct {
	count   int64
	resetAt time.Time
}

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store using fixed windows.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string]rateWindow
	now     func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string]rateWindow),
		now:     time.Now,
	}
}

// WithClock replaces the store clock. Intended for tests.
func (s *RateLimitMemoryStore) WithClock(now func() time.Time) *RateLimitMemoryStore {
	s.now = now

	return s
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = rateWindow{resetAt: now.Add(window)}
	}

	w.count++
	s.windows[key] = w

	return w.count, nil
}
