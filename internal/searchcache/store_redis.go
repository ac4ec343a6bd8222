package searchcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	id "regdesk/pkg/domain"
)

const generationKeyPrefix = "regdesk:search:gen:"

// RedisStore shares cached searches across desk instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Generation(ctx context.Context, scope id.SearchScope) (int64, error) {
	gen, err := s.client.Get(ctx, generationKeyPrefix+string(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Bump uses INCR so concurrent invalidations never lose a generation.
func (s *RedisStore) Bump(ctx context.Context, scope id.SearchScope) (int64, error) {
	return s.client.Incr(ctx, generationKeyPrefix+string(scope)).Result()
}
