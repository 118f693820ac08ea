package cache

import (
	"encoding/json"
	"regexp"
	"sort"
	"time"
)

// MockCache is a map-backed Cache for tests. It ignores TTLs and sizes.
type MockCache struct {
	data map[string]json.RawMessage
}

// NewMockCache creates a new mock cache for testing.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string]json.RawMessage)}
}

func (m *MockCache) Get(key string) (json.RawMessage, bool) {
	val, found := m.data[key]
	return val, found
}

func (m *MockCache) Set(key string, v any, ttl time.Duration) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	m.data[key] = raw
	return true
}

func (m *MockCache) Has(key string) bool {
	_, found := m.data[key]
	return found
}

func (m *MockCache) IsExpired(key string) bool {
	_, found := m.data[key]
	return !found
}

func (m *MockCache) Delete(key string) bool {
	_, found := m.data[key]
	delete(m.data, key)
	return found
}

func (m *MockCache) Clear() int {
	n := len(m.data)
	m.data = make(map[string]json.RawMessage)
	return n
}

func (m *MockCache) ClearPattern(expr string) (int, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return 0, err
	}
	n := 0
	for k := range m.data {
		if re.MatchString(k) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *MockCache) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockCache) Stats() Stats {
	return Stats{Items: len(m.data)}
}
