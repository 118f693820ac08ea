package cache

import (
	"encoding/json"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

// Cache is the interface consumed by the report layer and the admin API.
// A false return from Set means "value not cached" and must be treated as
// a cache miss by callers, never as an error.
type Cache interface {
	// Get retrieves the payload stored under key.
	// Returns the payload and true if present and not expired, otherwise
	// nil and false. Expired entries are removed on read.
	Get(key string) (json.RawMessage, bool)

	// Set serializes v and stores it under key with the given TTL.
	// TTL of 0 means use the default TTL. Returns false if the entry was
	// rejected (oversized, unserializable, or capacity unrecoverable).
	Set(key string, v any, ttl time.Duration) bool

	// Has reports whether key is present and not expired, without
	// exposing the payload. Expired entries are removed like in Get.
	Has(key string) bool

	// IsExpired reports whether the entry under key has passed its TTL
	// without removing it. Returns true for absent keys.
	IsExpired(key string) bool

	// Delete removes the entry under key, reporting whether one existed.
	Delete(key string) bool

	// Clear removes all entries and returns the number removed.
	Clear() int

	// ClearPattern removes all entries whose key matches the regular
	// expression and returns the number removed.
	ClearPattern(expr string) (int, error)

	// Keys returns a snapshot of the current keys.
	Keys() []string

	// Stats returns aggregate cache statistics.
	Stats() Stats
}

// Stats represents aggregate cache statistics.
type Stats struct {
	Items           int       // Current number of entries
	SizeBytes       int64     // Sum of serialized entry sizes
	OldestCreatedAt time.Time // Insertion time of the oldest entry (zero when empty)
	NewestCreatedAt time.Time // Insertion time of the newest entry (zero when empty)
	Hits            uint64    // Total reads served from the cache
	Misses          uint64    // Total reads that found nothing usable
	Evictions       uint64    // Entries removed by capacity pressure
	Expirations     uint64    // Entries removed because their TTL elapsed
	Rejections      uint64    // Set calls refused admission
}

// GetAs retrieves the entry under key and unmarshals it into T.
// A stored payload that no longer deserializes is removed and reported
// as a miss, the same as an expired entry.
func GetAs[T any](c Cache, key string) (T, bool) {
	var v T
	raw, ok := c.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("Removing corrupted cache entry", "key", key, "error", err)
		c.Delete(key)
		var zero T
		return zero, false
	}
	return v, true
}
