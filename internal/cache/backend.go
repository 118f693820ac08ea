package cache

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned by Backend.Put when the storage medium
// refuses a write for its own quota, independent of the store's
// accounting. The store reacts with one aggressive-eviction retry.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend is the persistence medium behind the store. The store serves
// all reads from its in-memory index; the backend only has to survive
// restarts. Keys passed here are storage keys, already namespaced with
// the store's reserved prefix.
type Backend interface {
	// Load returns all persisted entries. Entries outside the store's
	// namespace are filtered out by the store, not the backend.
	Load() ([]Entry, error)

	// Put persists an entry under its storage key, replacing any
	// previous value. Returns ErrQuotaExceeded when the medium is full.
	Put(storageKey string, e Entry) error

	// Delete removes the given storage keys. Missing keys are not an error.
	Delete(storageKeys ...string) error

	// Close releases backend resources.
	Close() error
}

// MemoryBackend is a Backend with no persistence beyond process lifetime.
// It is the default medium; with a non-zero quota it also exercises the
// store's quota-retry path, which is how the tests drive that branch.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]Entry
	quota   int64
	used    int64
}

// NewMemoryBackend creates an in-memory backend without a quota.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry)}
}

// NewMemoryBackendWithQuota creates an in-memory backend that refuses
// writes once the sum of stored entry sizes would exceed quota bytes.
func NewMemoryBackendWithQuota(quota int64) *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]Entry), quota: quota}
}

func (b *MemoryBackend) Load() ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	return out, nil
}

func (b *MemoryBackend) Put(storageKey string, e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	freed := int64(0)
	if old, ok := b.entries[storageKey]; ok {
		freed = old.SizeBytes
	}
	if b.quota > 0 && b.used-freed+e.SizeBytes > b.quota {
		return ErrQuotaExceeded
	}
	b.entries[storageKey] = e
	b.used += e.SizeBytes - freed
	return nil
}

func (b *MemoryBackend) Delete(storageKeys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range storageKeys {
		if old, ok := b.entries[k]; ok {
			b.used -= old.SizeBytes
			delete(b.entries, k)
		}
	}
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
