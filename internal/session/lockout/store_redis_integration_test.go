//go:build integration

package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"regdesk/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.redis.FlushAll(s.T())
}

func (s *RedisStoreSuite) TestCountsAndLocks() {
	ctx := context.Background()
	key := Key("officer", "10.0.0.1")

	n, err := s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, n)
	n, err = s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(2, n)

	remaining, err := s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Zero(remaining)

	s.Require().NoError(s.store.Lock(ctx, key, time.Minute))
	remaining, err = s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Greater(remaining, 50*time.Second)

	n, err = s.store.RecordFailure(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, n, "locking resets the counter")

	s.Require().NoError(s.store.Clear(ctx, key))
	remaining, err = s.store.LockedFor(ctx, key)
	s.Require().NoError(err)
	s.Zero(remaining)
}
