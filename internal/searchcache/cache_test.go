package searchcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"regdesk/internal/platform/metrics"
	id "regdesk/pkg/domain"
)

type page struct {
	IDs []string `json:"ids"`
}

type CacheSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	store   *InMemoryStore
	metrics *metrics.Metrics
	cache   *Cache
	key     Key
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore()
	s.store.now = func() time.Time { return s.now }
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.cache = New(s.store, WithTTL(time.Minute), WithMetrics(s.metrics))
	s.key = Key{Operator: id.OperatorID(uuid.New()), Scope: id.ScopeAdults, Query: "Ali"}
}

// put stores v the way a caller does after a miss.
func (s *CacheSuite) put(key Key, v any) {
	slot, _ := s.cache.Get(s.ctx, key, &page{})
	s.cache.Put(s.ctx, slot, v)
}

func (s *CacheSuite) hit(key Key, dst any) bool {
	_, ok := s.cache.Get(s.ctx, key, dst)
	return ok
}

func (s *CacheSuite) TestHitAndMiss() {
	var got page
	slot, ok := s.cache.Get(s.ctx, s.key, &got)
	s.False(ok)

	s.cache.Put(s.ctx, slot, page{IDs: []string{"1", "2"}})
	s.True(s.hit(s.key, &got))
	s.Equal([]string{"1", "2"}, got.IDs)

	s.Run("query matching ignores case and padding", func() {
		k := s.key
		k.Query = "  ali "
		var again page
		s.True(s.hit(k, &again))
	})

	s.Run("other operators do not share entries", func() {
		k := s.key
		k.Operator = id.OperatorID(uuid.New())
		var other page
		s.False(s.hit(k, &other))
	})

	s.Equal(float64(2), promtestutil.ToFloat64(s.metrics.SearchCache.WithLabelValues("adults", "hit")))
}

func (s *CacheSuite) TestExpiry() {
	s.put(s.key, page{IDs: []string{"1"}})
	s.now = s.now.Add(2 * time.Minute)
	var got page
	s.False(s.hit(s.key, &got))
}

func (s *CacheSuite) TestInvalidateOnlyAffectsScope() {
	children := Key{Operator: s.key.Operator, Scope: id.ScopeChildren, Query: "Omar"}
	s.put(s.key, page{IDs: []string{"1"}})
	s.put(children, page{IDs: []string{"c1"}})

	s.Require().NoError(s.cache.Invalidate(s.ctx, id.ScopeAdults))

	var got page
	s.False(s.hit(s.key, &got))
	s.True(s.hit(children, &got))
}

func (s *CacheSuite) TestResultFetchedBeforeInvalidateIsNotServed() {
	var got page
	slot, ok := s.cache.Get(s.ctx, s.key, &got)
	s.Require().False(ok)

	// a registration lands while the registry search is in flight
	s.Require().NoError(s.cache.Invalidate(s.ctx, id.ScopeAdults))
	s.cache.Put(s.ctx, slot, page{IDs: []string{"old"}})

	s.False(s.hit(s.key, &got))
	s.Empty(got.IDs)

	s.Run("a lookup after the invalidation caches normally", func() {
		s.put(s.key, page{IDs: []string{"new"}})
		s.True(s.hit(s.key, &got))
		s.Equal([]string{"new"}, got.IDs)
	})
}

func (s *CacheSuite) TestZeroSlotIsIgnored() {
	s.cache.Put(s.ctx, Slot{}, page{IDs: []string{"1"}})
	s.Empty(s.store.entries)
}

type failingStore struct{ *InMemoryStore }

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (s *CacheSuite) TestStoreFailureIsAMiss() {
	cache := New(failingStore{NewInMemoryStore()})
	var got page
	_, ok := cache.Get(s.ctx, s.key, &got)
	s.False(ok)
}
