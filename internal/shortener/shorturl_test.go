package shortener_test

import (
	"errors"
	"testing"
	"time"

	"github.com/serroba/qikurl/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCode(t *testing.T) {
	t.Run("keeps even positions up to twelve characters", func(t *testing.T) {
		secret := "a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6"

		assert.Equal(t, shortener.Code("abcdefghijkl"), shortener.DeriveCode(secret))
	})

	t.Run("is deterministic", func(t *testing.T) {
		gen, err := shortener.NewSecretGenerator()
		require.NoError(t, err)

		secret := gen()

		assert.Equal(t, shortener.DeriveCode(secret), shortener.DeriveCode(secret))
	})

	t.Run("short secrets yield the available subset", func(t *testing.T) {
		assert.Equal(t, shortener.Code("ace"), shortener.DeriveCode("abcde"))
		assert.Equal(t, shortener.Code(""), shortener.DeriveCode(""))
	})
}

func TestNewSecretGenerator(t *testing.T) {
	gen, err := shortener.NewSecretGenerator()
	require.NoError(t, err)

	first, second := gen(), gen()

	assert.Len(t, first, shortener.SecretLength)
	assert.Regexp(t, `^[0-9A-Za-z]+$`, first)
	assert.NotEqual(t, first, second)
	assert.Len(t, shortener.DeriveCode(first), shortener.CodeLength)
}

func TestNormalizeExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("defaults to one year", func(t *testing.T) {
		got := shortener.NormalizeExpiry(nil, now)

		assert.Equal(t, shortener.MaxLifetime, got.Sub(now))
	})

	t.Run("keeps an expiry within the allowed range", func(t *testing.T) {
		requested := now.Add(48 * time.Hour)

		assert.Equal(t, requested, shortener.NormalizeExpiry(&requested, now))
	})

	t.Run("keeps an expiry of exactly one year", func(t *testing.T) {
		requested := now.Add(shortener.MaxLifetime)

		assert.Equal(t, requested, shortener.NormalizeExpiry(&requested, now))
	})

	t.Run("clamps an expiry beyond one year", func(t *testing.T) {
		requested := now.Add(shortener.MaxLifetime + time.Hour)

		assert.Equal(t, now.Add(shortener.MaxLifetime), shortener.NormalizeExpiry(&requested, now))
	})

	t.Run("replaces an expiry in the past", func(t *testing.T) {
		requested := now.Add(-time.Minute)

		assert.Equal(t, now.Add(shortener.MaxLifetime), shortener.NormalizeExpiry(&requested, now))
	})
}

func TestInitialCacheTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("caps at the maximum", func(t *testing.T) {
		got := shortener.InitialCacheTTL(now.Add(72*time.Hour), now, shortener.DefaultCacheTTL)

		assert.Equal(t, shortener.DefaultCacheTTL, got)
	})

	t.Run("uses whole seconds to expiry", func(t *testing.T) {
		got := shortener.InitialCacheTTL(now.Add(90*time.Second+500*time.Millisecond), now, shortener.DefaultCacheTTL)

		assert.Equal(t, 90*time.Second, got)
	})

	t.Run("never goes below one second", func(t *testing.T) {
		got := shortener.InitialCacheTTL(now.Add(200*time.Millisecond), now, shortener.DefaultCacheTTL)

		assert.Equal(t, time.Second, got)
	})
}

func TestShortURLCodec(t *testing.T) {
	t.Run("round trips every field", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
		original := &shortener.ShortURL{
			Code:           "abcdefghijkl",
			LongURL:        "https://example.com/a?b=c",
			DeletionSecret: "a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6",
			ExpiresAt:      now.Add(time.Hour),
			ClickCount:     7,
			SingleUse:      true,
			CreatedAt:      now,
		}

		data, err := shortener.EncodeShortURL(original)
		require.NoError(t, err)

		decoded, err := shortener.DecodeShortURL(data)
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	})

	t.Run("rejects malformed data", func(t *testing.T) {
		_, err := shortener.DecodeShortURL([]byte("not json"))

		assert.Error(t, err)
	})

	t.Run("rejects records without a code", func(t *testing.T) {
		_, err := shortener.DecodeShortURL([]byte(`{"long_url":"https://example.com"}`))

		assert.Error(t, err)
	})
}

func TestShortURLState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &shortener.ShortURL{ExpiresAt: now}

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Nanosecond)))

	assert.False(t, s.Consumed())

	s.ClickCount = 1
	assert.False(t, s.Consumed())

	s.SingleUse = true
	assert.True(t, s.Consumed())
}

func TestPersistenceError(t *testing.T) {
	t.Run("matches ErrPersistence and unwraps the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := error(&shortener.PersistenceError{Op: "get", Err: cause})

		assert.ErrorIs(t, err, shortener.ErrPersistence)
		assert.ErrorIs(t, err, cause)
		assert.False(t, shortener.IsTransient(err))
	})

	t.Run("reports transient failures", func(t *testing.T) {
		err := error(&shortener.PersistenceError{Op: "get", Transient: true, Err: errors.New("timeout")})

		assert.True(t, shortener.IsTransient(err))
		assert.False(t, shortener.IsTransient(errors.New("other")))
	})
}
