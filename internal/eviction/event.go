package eviction

import "time"

// TopicEvictions carries cache keys that could not be deleted inline.
const TopicEvictions = "shorturl.evictions"

// EvictionRequested asks a worker to drop the cached copy of a short URL.
type EvictionRequested struct {
	Code        string    `json:"code"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}
