package stubs

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vtex/go-fetch/redis"
)

// Redis is an in-memory redis.Cache. Expiration is not simulated; use Expire to drop a key.
type Redis struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failAll error
}

func NewRedis() *Redis {
	return &Redis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

var _ redis.Cache = (*Redis)(nil)

func (r *Redis) Get(ctx context.Context, key string, result interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return false, r.failAll
	}

	bytes, ok := r.data[key]
	if !ok {
		return false, nil
	}
	if bytesRes, isBytesPtr := result.(*[]byte); isBytesPtr {
		*bytesRes = bytes
		return true, nil
	}
	if err := json.Unmarshal(bytes, result); err != nil {
		return false, errors.Wrap(err, "Failed to umarshal stubbed response")
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, expireIn time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}

	bytes, isBytes := value.([]byte)
	if !isBytes {
		var err error
		if bytes, err = json.Marshal(value); err != nil {
			return errors.WithStack(err)
		}
	}
	r.data[key] = bytes
	r.ttls[key] = expireIn
	return nil
}

func (r *Redis) Del(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll != nil {
		return r.failAll
	}
	delete(r.data, key)
	delete(r.ttls, key)
	return nil
}

// TTL returns the expiration the key was last set with.
func (r *Redis) TTL(key string) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ttl, ok := r.ttls[key]
	return ttl, ok
}

// Expire drops the key as if its TTL had passed.
func (r *Redis) Expire(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	delete(r.ttls, key)
}

// FailWith makes every call return err until it is called again with nil.
func (r *Redis) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAll = err
}
