package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type memoryEntry struct {
	values    []string
	expiresAt time.Time
}

// MemoryStore keeps entries in process with a TTL. Concurrent misses for the
// same key share one load.
type MemoryStore struct {
	mu          sync.RWMutex
	entries     map[string]memoryEntry
	generations map[string]uint64
	group       singleflight.Group
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:     make(map[string]memoryEntry),
		generations: make(map[string]uint64),
		now:         time.Now,
	}
}

func (s *MemoryStore) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]string, error) {
	if values, ok := s.lookup(key); ok {
		return values, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		if values, ok := s.lookup(key); ok {
			return values, nil
		}

		s.mu.RLock()
		generation := s.generations[key]
		s.mu.RUnlock()

		// shared by every waiter on key, so one caller's cancellation must not fail the rest
		values, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		// an Invalidate during the load makes the loaded values stale
		if s.generations[key] == generation {
			s.entries[key] = memoryEntry{values: values, expiresAt: s.now().Add(ttl)}
		}
		s.mu.Unlock()
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneStrings(result.([]string)), nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.generations[key]++
	s.mu.Unlock()
	s.group.Forget(key)
	return nil
}

func (s *MemoryStore) lookup(key string) ([]string, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || !s.now().Before(entry.expiresAt) {
		return nil, false
	}
	return cloneStrings(entry.values), true
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
