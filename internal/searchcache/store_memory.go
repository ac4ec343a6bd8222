package searchcache

import (
	"context"
	"sync"
	"time"

	id "regdesk/pkg/domain"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryStore is the single-instance Store.
type InMemoryStore struct {
	mu          sync.Mutex
	entries     map[string]entry
	generations map[id.SearchScope]int64
	now         func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries:     map[string]entry{},
		generations: map[id.SearchScope]int64{},
		now:         time.Now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *InMemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Generation(_ context.Context, scope id.SearchScope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[scope], nil
}

// Bump advances the generation and drops entries that can no longer be read.
func (s *InMemoryStore) Bump(_ context.Context, scope id.SearchScope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[scope]++
	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	return s.generations[scope], nil
}

// Len is the number of stored entries, expired or not.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
