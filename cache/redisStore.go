package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vtex/go-fetch/redis"
)

// NewRedisStore keeps the value of a Timed cache under a single Redis key, so it can be shared by several processes
// and survive restarts. Retention bounds how long Redis keeps the key and should be at least the cache's fallback
// duration; zero keeps it forever.
func NewRedisStore[T any](client redis.Cache, key string, retention time.Duration) Store[T] {
	return &redisStore[T]{client: client, key: key, retention: retention}
}

type redisStore[T any] struct {
	client    redis.Cache
	key       string
	retention time.Duration
}

func (s *redisStore[T]) Load(ctx context.Context) (Timestamped[T], bool, error) {
	var value Timestamped[T]
	ok, err := s.client.Get(ctx, s.key, &value)
	if err != nil {
		return Timestamped[T]{}, false, errors.Wrapf(err, "Failed to load cached value from key %s", s.key)
	}
	return value, ok, nil
}

func (s *redisStore[T]) Save(ctx context.Context, value Timestamped[T]) error {
	if err := s.client.Set(ctx, s.key, value, s.retention); err != nil {
		return errors.Wrapf(err, "Failed to save cached value to key %s", s.key)
	}
	return nil
}

func (s *redisStore[T]) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key); err != nil {
		return errors.Wrapf(err, "Failed to clear cached value from key %s", s.key)
	}
	return nil
}
