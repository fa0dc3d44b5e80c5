// Package cache provides per-invocation memoized lookups keyed by identifier.
package cache

import (
	"sync"
	"time"
)

const defaultMaxEntries = 10000

// Memo caches the result of an expensive lookup for the lifetime of one
// invocation. There is no long-lived process in this execution model, so
// callers own the cache lifetime; nothing here is process-global.
type Memo[V any] struct {
	mu         sync.Mutex
	entries    map[string]*entry[V]
	maxEntries int
}

type entry[V any] struct {
	value      V
	lastAccess time.Time
}

// NewMemo creates a memo cache with the given capacity.
// maxEntries <= 0 uses the default.
func NewMemo[V any](maxEntries int) *Memo[V] {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Memo[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: maxEntries,
	}
}

// Get returns the cached value for key, if present.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	e.lastAccess = time.Now()
	return e.value, true
}

// Put stores a value, evicting the least recently used entry at capacity.
func (m *Memo[V]) Put(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.maxEntries {
		m.evictLRU()
	}
	m.entries[key] = &entry[V]{value: value, lastAccess: time.Now()}
}

// GetOrFill returns the cached value for key, computing and storing it via
// fill on a miss. A fill error is returned uncached so the next caller
// retries the lookup.
func (m *Memo[V]) GetOrFill(key string, fill func() (V, error)) (V, error) {
	if value, ok := m.Get(key); ok {
		return value, nil
	}
	value, err := fill()
	if err != nil {
		return value, err
	}
	m.Put(key, value)
	return value, nil
}

// Len returns the number of cached entries (for testing/monitoring).
func (m *Memo[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictLRU removes the least recently accessed entry to enforce capacity.
func (m *Memo[V]) evictLRU() {
	var lruKey string
	var lruTime time.Time

	for key, e := range m.entries {
		if lruKey == "" || e.lastAccess.Before(lruTime) {
			lruKey = key
			lruTime = e.lastAccess
		}
	}

	if lruKey != "" {
		delete(m.entries, lruKey)
	}
}
