// Package revocation keeps the ids of logged-out tokens until they expire.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"regdesk/pkg/platform/sentinel"
)

// List records revoked token ids.
type List interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrExpired)
	}
	return nil
}

// InMemory is a process-local revocation list.
type InMemory struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{revoked: map[string]time.Time{}, now: time.Now}
}

func (m *InMemory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = m.now().Add(ttl)
	m.sweep()
	return nil
}

func (m *InMemory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if !m.now().Before(exp) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}

// sweep drops expired entries. Callers hold mu.
func (m *InMemory) sweep() {
	now := m.now()
	for jti, exp := range m.revoked {
		if !now.Before(exp) {
			delete(m.revoked, jti)
		}
	}
}
