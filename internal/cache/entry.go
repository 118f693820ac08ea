package cache

import (
	"encoding/json"
	"time"
)

// Entry is a single cached value together with the bookkeeping the store
// needs for expiry and size-based eviction. SizeBytes is computed once at
// insertion from the serialized payload and never recomputed.
type Entry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	TTL       time.Duration   `json:"ttl"`
	SizeBytes int64           `json:"size_bytes"`
}

// ExpiresAt returns the instant after which the entry is stale.
func (e Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// Expired reports whether the entry is stale at the given instant.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}
