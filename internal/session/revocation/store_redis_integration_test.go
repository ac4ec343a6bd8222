//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"regdesk/pkg/testutil/containers"
)

type RedisSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	list  *Redis
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(RedisSuite))
}

func (s *RedisSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.list = NewRedis(s.redis.Client)
}

func (s *RedisSuite) SetupTest() {
	s.redis.FlushAll(s.T())
}

func (s *RedisSuite) TestRevokeAndCheck() {
	ctx := context.Background()
	s.Require().NoError(s.list.Revoke(ctx, "jti-1", time.Minute))

	revoked, err := s.list.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	ttl, err := s.redis.Client.TTL(ctx, revokedTokenKeyPrefix+"jti-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	revoked, err = s.list.IsRevoked(ctx, "other")
	s.Require().NoError(err)
	s.False(revoked)
}
