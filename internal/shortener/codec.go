package shortener

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errMissingCode = errors.New("cached record has no short code")

// EncodeShortURL serializes a short URL for the cache.
func EncodeShortURL(s *ShortURL) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeShortURL parses a cached short URL produced by EncodeShortURL.
func DecodeShortURL(data []byte) (*ShortURL, error) {
	var s ShortURL
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}

	if s.Code == "" {
		return nil, errMissingCode
	}

	return &s, nil
}
