package cache

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jaspervdheide/google-ads-dashboard-sub002/internal/logger"
)

// Option defaults. The fill ratio deliberately undershoots the hard
// capacity so one eviction pass buys headroom for several inserts
// instead of evicting on every subsequent write.
const (
	DefaultHardCapacityBytes  = 8 << 20
	DefaultTTL                = 5 * time.Minute
	DefaultFillRatio          = 0.6
	DefaultAggressiveFraction = 0.5
	DefaultKeyPrefix          = "adsdash:"
)

// Options configures a Store. Zero values fall back to defaults.
type Options struct {
	HardCapacityBytes int64         // total budget for serialized payloads
	MaxEntryBytes     int64         // per-entry ceiling; defaults to a quarter of the capacity
	DefaultTTL        time.Duration // used when Set is called with ttl 0
	// CleanupTargetFillRatio is the fraction of the hard capacity that an
	// oldest-first eviction pass reduces the store to.
	CleanupTargetFillRatio float64
	// AggressiveEvictionFraction is the fraction of stored bytes freed on
	// the retry path after a post-insert overflow or a backend quota error.
	AggressiveEvictionFraction float64
	// KeyPrefix namespaces storage keys so clears never touch unrelated
	// data sharing the same medium.
	KeyPrefix string
	// SweepInterval enables the proactive expiry sweep when positive.
	// Lazy expiry on read already guarantees no stale reads; the sweep
	// only reclaims space earlier.
	SweepInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.HardCapacityBytes <= 0 {
		o.HardCapacityBytes = DefaultHardCapacityBytes
	}
	if o.MaxEntryBytes <= 0 {
		o.MaxEntryBytes = o.HardCapacityBytes / 4
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = DefaultTTL
	}
	if o.CleanupTargetFillRatio <= 0 || o.CleanupTargetFillRatio > 1 {
		o.CleanupTargetFillRatio = DefaultFillRatio
	}
	if o.AggressiveEvictionFraction <= 0 || o.AggressiveEvictionFraction > 1 {
		o.AggressiveEvictionFraction = DefaultAggressiveFraction
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = DefaultKeyPrefix
	}
	return o
}

// Store is a bounded, TTL-aware key/value store with admission control
// and oldest-first eviction, write-through to a Backend. A single mutex
// guards the whole surface: eviction is a multi-step scan-sort-delete
// sequence that must not interleave with other operations.
type Store struct {
	mu      sync.Mutex
	backend Backend
	opts    Options

	entries   map[string]Entry
	totalSize int64

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
	rejections  uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Store over the given backend and reloads any entries the
// backend still holds under the store's namespace. Entries already past
// their TTL are dropped during the reload, and if the surviving set
// exceeds the hard capacity an eviction pass runs before New returns.
func New(backend Backend, opts Options) (*Store, error) {
	s := &Store{
		backend: backend,
		opts:    opts.withDefaults(),
		entries: make(map[string]Entry),
		stop:    make(chan struct{}),
	}

	persisted, err := backend.Load()
	if err != nil {
		// Degraded start: an unreadable medium means a cold cache, not a
		// failed boot.
		logger.Warn("Cache backend load failed, starting cold", "error", err)
		return s, nil
	}

	now := time.Now()
	var stale []string
	for _, e := range persisted {
		if !strings.HasPrefix(e.Key, s.opts.KeyPrefix) {
			continue
		}
		if e.Expired(now) {
			stale = append(stale, e.Key)
			continue
		}
		e.Key = strings.TrimPrefix(e.Key, s.opts.KeyPrefix)
		s.entries[e.Key] = e
		s.totalSize += e.SizeBytes
	}
	if len(stale) > 0 {
		if err := backend.Delete(stale...); err != nil {
			logger.Warn("Failed to drop stale persisted entries", "count", len(stale), "error", err)
		}
	}
	if s.totalSize > s.opts.HardCapacityBytes {
		s.evictOldestLocked(s.fillTarget())
	}
	return s, nil
}

// StartSweeper runs the periodic expiry sweep until ctx is cancelled or
// Close is called. It is a no-op when SweepInterval is not configured.
func (s *Store) StartSweeper(ctx context.Context) {
	if s.opts.SweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			removed := s.removeExpiredLocked(time.Now())
			s.mu.Unlock()
			if removed > 0 {
				logger.Debug("Cache sweep removed expired entries", "count", removed)
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the sweeper and releases the backend.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return s.backend.Close()
}

// Set serializes v and admits it under key. See Cache.Set for the
// contract; capacity pressure is never an error, only a false return.
func (s *Store) Set(key string, v any, ttl time.Duration) bool {
	if key == "" {
		return false
	}
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Warn("Cache payload failed to serialize", "key", key, "error", err)
		s.mu.Lock()
		s.rejections++
		s.mu.Unlock()
		return false
	}
	size := int64(len(payload))

	s.mu.Lock()
	defer s.mu.Unlock()

	if size > s.opts.MaxEntryBytes {
		s.rejections++
		return false
	}
	if ttl <= 0 {
		ttl = s.opts.DefaultTTL
	}

	now := time.Now()
	// A set with an existing key fully replaces the entry, so the old
	// version's bytes are reclaimed before admission control runs.
	if old, ok := s.entries[key]; ok {
		delete(s.entries, key)
		s.totalSize -= old.SizeBytes
	}

	if s.totalSize+size > s.opts.HardCapacityBytes {
		s.removeExpiredLocked(now)
	}
	if s.totalSize+size > s.opts.HardCapacityBytes {
		s.evictOldestLocked(s.fillTarget() - size)
	}

	e := Entry{Key: key, Payload: payload, CreatedAt: now, TTL: ttl, SizeBytes: size}
	s.entries[key] = e
	s.totalSize += size

	if !s.persistLocked(e) {
		s.dropLocked(key)
		s.rejections++
		return false
	}

	// Post-insert safety: with a well-behaved backend this never fires,
	// but accounting drift must not leave the store over budget.
	if s.totalSize > s.opts.HardCapacityBytes {
		s.aggressiveEvictLocked(key)
		if s.totalSize > s.opts.HardCapacityBytes {
			s.dropLocked(key)
			s.rejections++
			return false
		}
	}
	return true
}

// Get returns the payload stored under key, removing it first if it has
// expired.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookupLocked(key, time.Now())
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	return e.Payload, true
}

// Has reports whether key is present and fresh, with the same lazy
// expiry removal as Get.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookupLocked(key, time.Now()); !ok {
		s.misses++
		return false
	}
	s.hits++
	return true
}

// IsExpired reports expiry without removing the entry. Absent keys are
// reported as expired.
func (s *Store) IsExpired(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return true
	}
	return e.Expired(time.Now())
}

// Delete removes the entry under key if present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	s.dropLocked(key)
	return true
}

// Clear removes every entry in the store's namespace and returns how
// many were removed. Keys outside the namespace are never touched.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	if n == 0 {
		return 0
	}
	storageKeys := make([]string, 0, n)
	for k := range s.entries {
		storageKeys = append(storageKeys, s.storageKey(k))
	}
	s.entries = make(map[string]Entry)
	s.totalSize = 0
	if err := s.backend.Delete(storageKeys...); err != nil {
		logger.Warn("Cache backend clear failed", "error", err)
	}
	return n
}

// ClearPattern removes entries whose key matches the regular expression
// and returns how many were removed.
func (s *Store) ClearPattern(expr string) (int, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []string
	for k := range s.entries {
		if re.MatchString(k) {
			matched = append(matched, k)
		}
	}
	for _, k := range matched {
		s.dropLocked(k)
	}
	return len(matched), nil
}

// Keys returns a sorted snapshot of the current keys.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats returns aggregate statistics for diagnostics and the metrics
// collector.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Items:       len(s.entries),
		SizeBytes:   s.totalSize,
		Hits:        s.hits,
		Misses:      s.misses,
		Evictions:   s.evictions,
		Expirations: s.expirations,
		Rejections:  s.rejections,
	}
	for _, e := range s.entries {
		if st.OldestCreatedAt.IsZero() || e.CreatedAt.Before(st.OldestCreatedAt) {
			st.OldestCreatedAt = e.CreatedAt
		}
		if e.CreatedAt.After(st.NewestCreatedAt) {
			st.NewestCreatedAt = e.CreatedAt
		}
	}
	return st
}

func (s *Store) storageKey(key string) string {
	return s.opts.KeyPrefix + key
}

func (s *Store) fillTarget() int64 {
	return int64(s.opts.CleanupTargetFillRatio * float64(s.opts.HardCapacityBytes))
}

// lookupLocked finds a fresh entry, removing it when expired.
func (s *Store) lookupLocked(key string, now time.Time) (Entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	if e.Expired(now) {
		s.dropLocked(key)
		s.expirations++
		return Entry{}, false
	}
	return e, true
}

// dropLocked removes a single entry from the index and the backend.
func (s *Store) dropLocked(key string) {
	e, ok := s.entries[key]
	if !ok {
		return
	}
	delete(s.entries, key)
	s.totalSize -= e.SizeBytes
	if err := s.backend.Delete(s.storageKey(key)); err != nil {
		logger.Warn("Cache backend delete failed", "key", key, "error", err)
	}
}

// removeExpiredLocked sweeps every entry past its TTL. Free capacity
// recovery with no ordering concerns, so it always runs before eviction.
func (s *Store) removeExpiredLocked(now time.Time) int {
	var stale []string
	for k, e := range s.entries {
		if e.Expired(now) {
			stale = append(stale, k)
		}
	}
	for _, k := range stale {
		s.dropLocked(k)
		s.expirations++
	}
	return len(stale)
}

// evictOldestLocked removes entries in ascending CreatedAt order until
// the total size drops to targetBytes. A negative target empties the
// store.
func (s *Store) evictOldestLocked(targetBytes int64) {
	if s.totalSize <= targetBytes {
		return
	}
	byAge := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		byAge = append(byAge, e)
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].CreatedAt.Before(byAge[j].CreatedAt)
	})
	for _, e := range byAge {
		if s.totalSize <= targetBytes {
			break
		}
		s.dropLocked(e.Key)
		s.evictions++
	}
}

// aggressiveEvictLocked frees roughly AggressiveEvictionFraction of the
// stored bytes, oldest first, sparing the entry named by keep.
func (s *Store) aggressiveEvictLocked(keep string) {
	target := s.totalSize - int64(s.opts.AggressiveEvictionFraction*float64(s.totalSize))
	byAge := make([]Entry, 0, len(s.entries))
	for k, e := range s.entries {
		if k == keep {
			continue
		}
		byAge = append(byAge, e)
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].CreatedAt.Before(byAge[j].CreatedAt)
	})
	for _, e := range byAge {
		if s.totalSize <= target {
			break
		}
		s.dropLocked(e.Key)
		s.evictions++
	}
}

// persistLocked writes the entry through to the backend, retrying once
// after an aggressive eviction when the medium signals a quota. Failures
// degrade to a false return from Set, never an error.
func (s *Store) persistLocked(e Entry) bool {
	pe := e
	pe.Key = s.storageKey(e.Key)
	err := s.backend.Put(pe.Key, pe)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrQuotaExceeded) {
		logger.Warn("Cache backend over quota, evicting aggressively", "key", e.Key)
		s.aggressiveEvictLocked(e.Key)
		if err = s.backend.Put(pe.Key, pe); err == nil {
			return true
		}
	}
	logger.Warn("Cache backend write failed", "key", e.Key, "error", err)
	return false
}
