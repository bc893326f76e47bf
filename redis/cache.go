package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// Cache is a namespaced key/value view over a Redis server. Values are stored as JSON, except for []byte values which
// are stored as they are.
type Cache interface {
	Get(ctx context.Context, key string, result interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expireIn time.Duration) error
	Del(ctx context.Context, key string) error
}

// New connects lazily to the Redis server at endpoint. Keys are prefixed with "keyNamespace:".
func New(endpoint, keyNamespace string, opts ...Option) Cache {
	return &redisC{pool: newRedisPool(endpoint, opts...), keyNamespace: keyNamespace}
}

type redisC struct {
	pool         *redis.Pool
	keyNamespace string
}

func (r *redisC) Get(ctx context.Context, key string, result interface{}) (bool, error) {
	key, err := remoteKey(r.keyNamespace, key)
	if err != nil {
		return false, err
	}

	reply, err := redis.Bytes(r.doCmd(ctx, "GET", key))
	if err == redis.ErrNil {
		return false, nil
	} else if err != nil {
		logError(err, "redis_cache_get_error", r.keyNamespace, key, "Error getting data from redis")
		return false, errors.WithStack(err)
	}

	if err := decodeValue(reply, result); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisC) Set(ctx context.Context, key string, value interface{}, expireIn time.Duration) error {
	key, err := remoteKey(r.keyNamespace, key)
	if err != nil {
		return err
	}

	args, err := setArgs(key, value, expireIn)
	if err != nil {
		return err
	}

	if _, err := r.doCmd(ctx, "SET", args...); err != nil {
		logError(err, "redis_cache_set_error", r.keyNamespace, key, "Error saving data to redis")
		return errors.Wrap(err, "Failed SET command on Redis")
	}
	return nil
}

func (r *redisC) Del(ctx context.Context, key string) error {
	key, err := remoteKey(r.keyNamespace, key)
	if err != nil {
		return err
	}

	if _, err := r.doCmd(ctx, "DEL", key); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (r *redisC) doCmd(ctx context.Context, cmd string, args ...interface{}) (interface{}, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return redis.DoContext(conn, ctx, cmd, args...)
}

// setArgs builds the arguments of a SET command. Durations under a millisecond never expire.
func setArgs(key string, value interface{}, expireIn time.Duration) ([]interface{}, error) {
	bytes, err := encodeValue(value)
	if err != nil {
		return nil, err
	}

	args := []interface{}{key, bytes}
	if ms := expireIn.Milliseconds(); ms > 0 {
		args = append(args, "PX", ms)
	}
	return args, nil
}

func encodeValue(value interface{}) ([]byte, error) {
	if bytes, isBytes := value.([]byte); isBytes {
		return bytes, nil
	}
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to marshal value for saving to Redis")
	}
	return bytes, nil
}

func decodeValue(reply []byte, result interface{}) error {
	if bytesRes, isBytesPtr := result.(*[]byte); isBytesPtr {
		*bytesRes = reply
		return nil
	}
	if err := json.Unmarshal(reply, result); err != nil {
		return errors.Wrap(err, "Failed to umarshal Redis response")
	}
	return nil
}
