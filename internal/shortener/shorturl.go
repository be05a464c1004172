package shortener

import "time"

// Code represents a short URL code.
type Code string

// ShortURL represents a shortened URL and its lifecycle state.
type ShortURL struct {
	Code           Code      `json:"short_code"`
	LongURL        string    `json:"long_url"`
	DeletionSecret string    `json:"deletion_secret"`
	ExpiresAt      time.Time `json:"expires_at"`
	ClickCount     int64     `json:"click_count"`
	SingleUse      bool      `json:"single_use"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the short URL is past its expiry at now.
func (s *ShortURL) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Consumed reports whether a single-use short URL has already served its redirect.
func (s *ShortURL) Consumed() bool {
	return s.SingleUse && s.ClickCount > 0
}
