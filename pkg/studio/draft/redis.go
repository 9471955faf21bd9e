package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// redisStore persists drafts as JSON values. Redis also gets the TTL as
// a native key expiry for garbage collection, but the savedAt check at
// read time stays authoritative so all drivers expire identically.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func (s *redisStore) Save(ctx context.Context, d *Draft) error {
	d.SavedAt = s.now()
	payload, err := json.Marshal(d)
	if err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to encode draft", err)
	}

	if err := s.client.Set(ctx, d.Key(), payload, s.ttl).Err(); err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to write draft", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, scopeKey string, kind tools.Kind) (*Draft, error) {
	key := Key(scopeKey, kind)

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to read draft", err)
	}

	d, stale := decodeLive([]byte(val), s.ttl, s.now())
	if stale {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to drop stale draft", err)
		}
		return nil, nil
	}
	return d, nil
}

func (s *redisStore) Delete(ctx context.Context, scopeKey string, kind tools.Kind) error {
	if err := s.client.Del(ctx, Key(scopeKey, kind)).Err(); err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to delete draft", err)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context) ([]*Draft, error) {
	now := s.now()
	var drafts []*Draft

	iter := s.client.Scan(ctx, 0, "draft:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to read draft", err)
		}

		d, stale := decodeLive([]byte(val), s.ttl, now)
		if stale {
			_ = s.client.Del(ctx, key).Err()
			continue
		}
		drafts = append(drafts, d)
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.New(apperrors.ErrCodePersistence, "failed to scan drafts", err)
	}
	return drafts, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
