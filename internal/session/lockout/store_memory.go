package lockout

import (
	"context"
	"sync"
	"time"

	"regdesk/pkg/requestcontext"
)

type counter struct {
	failures    int
	windowEnds  time.Time
	lockedUntil time.Time
}

// InMemoryStore keeps counters in process. Times come from the request
// context so tests can pin them.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counters: map[string]*counter{}}
}

func (s *InMemoryStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		c = &counter{}
		s.counters[key] = c
	}
	if !now.Before(c.windowEnds) {
		c.failures = 0
		c.windowEnds = now.Add(window)
	}
	c.failures++
	return c.failures, nil
}

func (s *InMemoryStore) Lock(ctx context.Context, key string, d time.Duration) error {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok {
		c = &counter{}
		s.counters[key] = c
	}
	c.lockedUntil = now.Add(d)
	c.failures = 0
	c.windowEnds = time.Time{}
	return nil
}

func (s *InMemoryStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !now.Before(c.lockedUntil) {
		return 0, nil
	}
	return c.lockedUntil.Sub(now), nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}
