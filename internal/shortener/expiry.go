package shortener

import "time"

const (
	// MaxLifetime is the longest a short URL may live.
	MaxLifetime = 365 * 24 * time.Hour
	// DefaultCacheTTL caps how long a freshly created record stays cached.
	DefaultCacheTTL = 24 * time.Hour
)

// NormalizeExpiry returns the requested expiry when it lies in (now, now+MaxLifetime],
// and now+MaxLifetime otherwise.
func NormalizeExpiry(requested *time.Time, now time.Time) time.Time {
	if requested != nil {
		if ttl := requested.Sub(now); ttl > 0 && ttl <= MaxLifetime {
			return requested.UTC()
		}
	}

	return now.Add(MaxLifetime)
}

// InitialCacheTTL is the cache TTL used when a record is created:
// the time left until expiry capped at maxTTL, in whole seconds, never below one second.
func InitialCacheTTL(expiresAt, now time.Time, maxTTL time.Duration) time.Duration {
	ttl := RemainingTTL(expiresAt, now)
	if ttl > maxTTL {
		ttl = maxTTL
	}

	if ttl < time.Second {
		ttl = time.Second
	}

	return ttl
}

// RemainingTTL is the whole-second time left until expiresAt. It is zero or
// negative once the record is due to expire.
func RemainingTTL(expiresAt, now time.Time) time.Duration {
	return expiresAt.Sub(now).Truncate(time.Second)
}
