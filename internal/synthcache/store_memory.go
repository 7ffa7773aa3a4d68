package synthcache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process AudioStore for tests and single-instance
// development. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	artifact Artifact
	data     []byte
	deadline time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, a Artifact, data []byte, ttl time.Duration) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[a.Key] = memoryEntry{artifact: a, data: cp, deadline: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Artifact, bool, error) {
	a, _, err := s.Audio(ctx, key)
	if err == ErrNotFound {
		return Artifact{}, false, nil
	}
	return a, err == nil, err
}

func (s *MemoryStore) Audio(_ context.Context, key string) (Artifact, []byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Artifact{}, nil, ErrNotFound
	}
	if !s.now().Before(e.deadline) {
		s.mu.Lock()
		// A Put may have replaced the entry since the read lock was dropped.
		if cur, ok := s.entries[key]; ok && !s.now().Before(cur.deadline) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return Artifact{}, nil, ErrNotFound
	}
	return e.artifact, e.data, nil
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
