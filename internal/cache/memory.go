// internal/cache/memory.go
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"rating-engine/internal/common/metrics"
)

type memoryEntry struct {
	value     string
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore is an in-process cache safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	hits       int64
	misses     int64
	evictions  int64

	now func() time.Time // test seam
}

// NewMemoryStore creates an in-memory cache with the given TTL and entry limit.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.misses++
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return "", false, nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		s.misses++
		metrics.CacheMisses.WithLabelValues("memory").Inc()
		return "", false, nil
	}

	s.hits++
	metrics.CacheHits.WithLabelValues("memory").Inc()
	return entry.value, true, nil
}

func (s *MemoryStore) Put(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = memoryEntry{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(s.ttl),
	}

	if len(s.entries) > s.maxEntries {
		s.evictOldest()
	}
	return nil
}

// evictOldest keeps only the newest half of the entries. Caller holds s.mu.
func (s *MemoryStore) evictOldest() {
	type keyed struct {
		key      string
		storedAt time.Time
	}
	all := make([]keyed, 0, len(s.entries))
	for k, e := range s.entries {
		all = append(all, keyed{key: k, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].storedAt.After(all[j].storedAt)
	})

	keep := s.maxEntries / 2
	for _, e := range all[keep:] {
		delete(s.entries, e.key)
		s.evictions++
		metrics.CacheEvictions.WithLabelValues("memory").Inc()
	}
}

func (s *MemoryStore) Stats(ctx context.Context) (Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Count only unexpired entries
	now := s.now()
	count := 0
	for _, e := range s.entries {
		if !now.After(e.expiresAt) {
			count++
		}
	}

	return Statistics{
		Entries:    count,
		MaxEntries: s.maxEntries,
		Hits:       s.hits,
		Misses:     s.misses,
		Evictions:  s.evictions,
	}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
