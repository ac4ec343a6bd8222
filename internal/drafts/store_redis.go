package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "regdesk/pkg/domain"
	"regdesk/pkg/platform/sentinel"
)

// RedisStore keeps drafts as JSON values that expire with the draft.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Save(ctx context.Context, d *Draft) error {
	ttl := d.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("draft already expired: %w", sentinel.ErrExpired)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	return s.client.Set(ctx, storageKey(d.OperatorID, d.Category), raw, ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, operatorID id.OperatorID, category id.Category) (*Draft, error) {
	raw, err := s.client.Get(ctx, storageKey(operatorID, category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return &d, nil
}

func (s *RedisStore) Delete(ctx context.Context, operatorID id.OperatorID, category id.Category) error {
	return s.client.Del(ctx, storageKey(operatorID, category)).Err()
}
