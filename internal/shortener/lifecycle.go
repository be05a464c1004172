package shortener

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds every single repository or cache call.
const DefaultTimeout = 3 * time.Second

// Eviction reasons passed to the Evictor.
const (
	ReasonExpired  = "expired"
	ReasonConsumed = "consumed"
	ReasonDeleted  = "deleted"
	ReasonStale    = "stale"
)

// Manager owns the lifecycle of short URLs across the repository and the cache.
// The repository is authoritative. The cache is consulted first on the read path
// and its failures never fail an operation.
type Manager struct {
	repo        Repository
	cache       Cache
	evictor     Evictor
	metrics     Metrics
	logger      *zap.Logger
	newSecret   SecretGenerator
	now         func() time.Time
	timeout     time.Duration
	maxCacheTTL time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTimeout sets the per-call timeout for repository and cache calls.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithEvictor hands failed cache deletions to evictor.
func WithEvictor(evictor Evictor) Option {
	return func(m *Manager) {
		m.evictor = evictor
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithMaxCacheTTL caps the cache TTL of newly created short URLs.
func WithMaxCacheTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl >= time.Second {
			m.maxCacheTTL = ttl
		}
	}
}

// NewManager creates a lifecycle manager.
func NewManager(
	repo Repository, cache Cache, secrets SecretGenerator, logger *zap.Logger, opts ...Option,
) *Manager {
	m := &Manager{
		repo:        repo,
		cache:       cache,
		evictor:     noopEvictor{},
		metrics:     noopMetrics{},
		logger:      logger,
		newSecret:   secrets,
		now:         time.Now,
		timeout:     DefaultTimeout,
		maxCacheTTL: DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CreateParams holds the input of Create. A nil ExpiresAt means the maximum lifetime.
type CreateParams struct {
	LongURL   string
	ExpiresAt *time.Time
	SingleUse bool
}

// Create stores a new short URL and returns it together with its deletion secret.
func (m *Manager) Create(ctx context.Context, params CreateParams) (_ *ShortURL, err error) {
	defer m.observe("create", time.Now(), &err)

	now := m.now().UTC()
	secret := m.newSecret()

	shortURL := &ShortURL{
		Code:           DeriveCode(secret),
		LongURL:        params.LongURL,
		DeletionSecret: secret,
		ExpiresAt:      NormalizeExpiry(params.ExpiresAt, now),
		SingleUse:      params.SingleUse,
		CreatedAt:      now,
	}

	if err = m.put(ctx, shortURL); err != nil {
		return nil, err
	}

	m.cacheSet(ctx, shortURL, InitialCacheTTL(shortURL.ExpiresAt, now, m.maxCacheTTL))

	return shortURL, nil
}

// Resolve consumes one redirect of code and returns the short URL as it is after
// the redirect was counted. It returns ErrNotFound for absent or expired codes and
// ErrGone for single-use codes that were already consumed.
func (m *Manager) Resolve(ctx context.Context, code Code) (_ *ShortURL, err error) {
	defer m.observe("resolve", time.Now(), &err)

	shortURL, err := m.lookup(ctx, code)
	if err != nil {
		return nil, err
	}

	now := m.now()

	if shortURL.Expired(now) {
		_ = m.purge(ctx, code, ReasonExpired)

		return nil, ErrNotFound
	}

	if shortURL.Consumed() {
		return nil, ErrGone
	}

	if shortURL.SingleUse {
		return m.consume(ctx, shortURL)
	}

	updated, err := m.incrementClicks(ctx, code)
	if errors.Is(err, ErrNotFound) {
		m.cacheDelete(ctx, code, ReasonStale)

		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	if updated.Expired(now) {
		_ = m.purge(ctx, code, ReasonExpired)

		return nil, ErrNotFound
	}

	if ttl := RemainingTTL(updated.ExpiresAt, now); ttl > 0 {
		m.cacheSet(ctx, updated, ttl)
	}

	return updated, nil
}

// Delete removes the short URL whose code derives from secret. Unknown codes and
// wrong secrets both yield ErrUnauthorized.
func (m *Manager) Delete(ctx context.Context, secret string) (err error) {
	defer m.observe("delete", time.Now(), &err)

	code := DeriveCode(secret)

	shortURL, err := m.get(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return ErrUnauthorized
	}

	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(shortURL.DeletionSecret), []byte(secret)) != 1 {
		return ErrUnauthorized
	}

	return m.purge(ctx, code, ReasonDeleted)
}

// Status of a single dependency.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// HealthReport is the outcome of probing the repository and the cache.
type HealthReport struct {
	Store Status
	Cache Status
}

// Degraded reports whether any dependency is down.
func (r HealthReport) Degraded() bool {
	return r.Store != StatusUp || r.Cache != StatusUp
}

// Health probes the repository and the cache concurrently. A failing probe never
// affects the other.
func (m *Manager) Health(ctx context.Context) HealthReport {
	var (
		report HealthReport
		g      errgroup.Group
	)

	g.Go(func() error {
		report.Store = m.probe(ctx, "store", m.repo.Ping)

		return nil
	})

	g.Go(func() error {
		report.Cache = m.probe(ctx, "cache", m.cache.Ping)

		return nil
	})

	_ = g.Wait()

	return report
}

func (m *Manager) probe(ctx context.Context, name string, ping func(context.Context) error) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		m.logger.Warn("health probe failed", zap.String("dependency", name), zap.Error(err))

		return StatusDown
	}

	return StatusUp
}

// lookup reads through the cache. Any cache problem falls back to the repository.
func (m *Manager) lookup(ctx context.Context, code Code) (*ShortURL, error) {
	data, err := m.cacheGet(ctx, code)
	if err == nil {
		shortURL, decodeErr := DecodeShortURL(data)
		if decodeErr == nil {
			return shortURL, nil
		}

		m.cacheFailed("decode", code, decodeErr)
	}

	return m.get(ctx, code)
}

// consume claims a single-use short URL with a conditional delete so that only one
// concurrent resolver can redirect.
func (m *Manager) consume(ctx context.Context, shortURL *ShortURL) (*ShortURL, error) {
	deleteCtx, cancel := context.WithTimeout(ctx, m.timeout)
	claimed, err := m.repo.DeleteUnconsumed(deleteCtx, shortURL.Code)

	cancel()

	if err != nil {
		return nil, m.persistenceError("delete_unconsumed", err)
	}

	m.cacheDelete(ctx, shortURL.Code, ReasonConsumed)

	if !claimed {
		return nil, ErrGone
	}

	consumed := *shortURL
	consumed.ClickCount++

	return &consumed, nil
}

// purge deletes code from the repository and the cache concurrently. Only the
// repository error is returned.
func (m *Manager) purge(ctx context.Context, code Code, reason string) error {
	var g errgroup.Group

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		if err := m.repo.Delete(ctx, code); err != nil {
			m.logger.Error("failed to delete short url",
				zap.String("code", string(code)),
				zap.String("reason", reason),
				zap.Error(err),
			)

			return m.persistenceError("delete", err)
		}

		return nil
	})

	g.Go(func() error {
		m.cacheDelete(ctx, code, reason)

		return nil
	})

	return g.Wait()
}

func (m *Manager) get(ctx context.Context, code Code) (*ShortURL, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	shortURL, err := m.repo.Get(ctx, code)
	if err != nil {
		return nil, m.persistenceError("get", err)
	}

	return shortURL, nil
}

func (m *Manager) put(ctx context.Context, shortURL *ShortURL) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.repo.Put(ctx, shortURL); err != nil {
		return m.persistenceError("put", err)
	}

	return nil
}

func (m *Manager) incrementClicks(ctx context.Context, code Code) (*ShortURL, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	shortURL, err := m.repo.IncrementClicks(ctx, code)
	if err != nil {
		return nil, m.persistenceError("increment_clicks", err)
	}

	return shortURL, nil
}

func (m *Manager) persistenceError(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistence) {
		return err
	}

	return newPersistenceError(op, err)
}

func (m *Manager) cacheGet(ctx context.Context, code Code) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	data, err := m.cache.Get(ctx, code)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		m.cacheFailed("get", code, err)
	}

	return data, err
}

func (m *Manager) cacheSet(ctx context.Context, shortURL *ShortURL, ttl time.Duration) {
	data, err := EncodeShortURL(shortURL)
	if err != nil {
		m.cacheFailed("encode", shortURL.Code, err)

		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err = m.cache.Set(ctx, shortURL.Code, data, ttl); err != nil {
		m.cacheFailed("set", shortURL.Code, err)
	}
}

// cacheDelete removes code from the cache and falls back to the evictor when the
// cache cannot be reached, so a deleted record cannot keep redirecting until its TTL.
func (m *Manager) cacheDelete(ctx context.Context, code Code, reason string) {
	deleteCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.cache.Delete(deleteCtx, code)

	cancel()

	if err == nil {
		return
	}

	m.cacheFailed("delete", code, err)

	evictCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err = m.evictor.Evict(evictCtx, code, reason); err != nil {
		m.logger.Error("failed to schedule cache eviction",
			zap.String("code", string(code)),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func (m *Manager) cacheFailed(op string, code Code, err error) {
	m.metrics.CacheError(op)
	m.logger.Warn("cache degraded",
		zap.String("op", op),
		zap.String("code", string(code)),
		zap.Error(err),
	)
}

func (m *Manager) observe(op string, start time.Time, err *error) {
	m.metrics.Observe(op, Outcome(*err), time.Since(start))
}

// Outcome classifies an operation result for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrGone):
		return "gone"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case IsTransient(err):
		return "timeout"
	default:
		return "error"
	}
}
