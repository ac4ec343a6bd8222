package lockout

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failuresKeyPrefix = "regdesk:lockout:failures:"
	lockKeyPrefix     = "regdesk:lockout:locked:"
)

// RedisStore shares counters across desk instances. The failure key expires
// with the window; the lock key expires with the lock.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, failuresKeyPrefix+key)
	pipe.ExpireNX(ctx, failuresKeyPrefix+key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, d time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, lockKeyPrefix+key, "1", d)
	pipe.Del(ctx, failuresKeyPrefix+key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// -2 means no key, -1 no expiry; neither is a live lock.
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, failuresKeyPrefix+key, lockKeyPrefix+key).Err()
}
