// Package searchcache memoizes registry search results per operator and
// scope. Writes to the registry bump the scope generation, which orphans
// every cached page for that scope.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"regdesk/internal/platform/metrics"
	id "regdesk/pkg/domain"
)

const defaultTTL = 5 * time.Minute

// Store is the raw key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Generation(ctx context.Context, scope id.SearchScope) (int64, error)
	Bump(ctx context.Context, scope id.SearchScope) (int64, error)
}

// Key identifies one cached search.
type Key struct {
	Operator id.OperatorID
	Scope    id.SearchScope
	Query    string
}

// Cache wraps a Store with JSON encoding and metrics. Cache failures are
// logged and treated as misses.
type Cache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: defaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Slot is where the result of one lookup belongs. It pins the scope
// generation read by Get, so a result fetched after a miss is written under
// that generation and an Invalidate in between orphans it.
type Slot struct {
	scope      id.SearchScope
	storageKey string
}

// Get decodes a cached value into dst and reports whether it was found. The
// returned Slot is passed to Put to store a freshly fetched value.
func (c *Cache) Get(ctx context.Context, key Key, dst any) (Slot, bool) {
	slot := Slot{scope: key.Scope}
	k, err := c.storageKey(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "search cache generation lookup failed", "scope", key.Scope, "error", err)
		c.metrics.IncrementSearchCache(string(key.Scope), false)
		return slot, false
	}
	slot.storageKey = k
	raw, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.logger.WarnContext(ctx, "search cache read failed", "scope", key.Scope, "error", err)
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, dst); err != nil {
			c.logger.WarnContext(ctx, "search cache entry unreadable", "scope", key.Scope, "error", err)
			ok = false
		}
	}
	c.metrics.IncrementSearchCache(string(key.Scope), ok)
	return slot, ok
}

// Put stores v in the slot returned by Get. A zero Slot is ignored.
func (c *Cache) Put(ctx context.Context, slot Slot, v any) {
	if slot.storageKey == "" {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "search cache encode failed", "scope", slot.scope, "error", err)
		return
	}
	if err := c.store.Set(ctx, slot.storageKey, raw, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "search cache write failed", "scope", slot.scope, "error", err)
	}
}

// Invalidate bumps the scope generation so every cached search for it misses.
func (c *Cache) Invalidate(ctx context.Context, scope id.SearchScope) error {
	if _, err := c.store.Bump(ctx, scope); err != nil {
		return fmt.Errorf("bumping %s search generation: %w", scope, err)
	}
	return nil
}

func (c *Cache) storageKey(ctx context.Context, key Key) (string, error) {
	gen, err := c.store.Generation(ctx, key.Scope)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(key.Query))))
	return fmt.Sprintf("regdesk:search:%s:g%d:%s:%s", key.Scope, gen, key.Operator, hex.EncodeToString(sum[:12])), nil
}
