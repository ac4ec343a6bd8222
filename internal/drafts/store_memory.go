package drafts

import (
	"context"
	"sync"
	"time"

	id "regdesk/pkg/domain"
	"regdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps drafts in process.
type InMemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{drafts: map[string]Draft{}, now: time.Now}
}

func (s *InMemoryStore) Save(_ context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[storageKey(d.OperatorID, d.Category)] = *d
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, operatorID id.OperatorID, category id.Category) (*Draft, error) {
	s.mu.RLock()
	d, ok := s.drafts[storageKey(operatorID, category)]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !s.now().Before(d.ExpiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

func (s *InMemoryStore) Delete(_ context.Context, operatorID id.OperatorID, category id.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, storageKey(operatorID, category))
	return nil
}
