package redis

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
)

const (
	idlePingThreshold = 30 * time.Second
	idleConnTimeout   = 3 * time.Minute
)

type poolOptions struct {
	maxIdle, maxActive int
	dialTimeout        time.Duration
	writeTimeout       time.Duration
	// Zero disables the read timeout, for connections blocking on replies such as subscriptions.
	readTimeout time.Duration
}

func defaultPoolOptions() poolOptions {
	return poolOptions{
		maxIdle:      30,
		maxActive:    70,
		dialTimeout:  1 * time.Second,
		writeTimeout: 200 * time.Millisecond,
		readTimeout:  200 * time.Millisecond,
	}
}

// Option configures the connection pool of a Cache.
type Option func(*poolOptions)

// WithMaxConnections bounds the idle and total connections kept by the pool. Callers wait for a free connection
// once maxActive are in use, or until their context is done.
func WithMaxConnections(maxIdle, maxActive int) Option {
	return func(o *poolOptions) {
		o.maxIdle, o.maxActive = maxIdle, maxActive
	}
}

// WithTimeouts replaces the dial, write and read timeouts of every connection.
func WithTimeouts(dial, write, read time.Duration) Option {
	return func(o *poolOptions) {
		o.dialTimeout, o.writeTimeout, o.readTimeout = dial, write, read
	}
}

func (o poolOptions) dialOptions() []redis.DialOption {
	dialOpts := []redis.DialOption{
		redis.DialConnectTimeout(o.dialTimeout),
		redis.DialWriteTimeout(o.writeTimeout),
	}
	if o.readTimeout > 0 {
		dialOpts = append(dialOpts, redis.DialReadTimeout(o.readTimeout))
	}
	return dialOpts
}

// newRedisPool dials lazily. Connections idle for longer than idlePingThreshold are pinged before being handed out.
func newRedisPool(endpoint string, opts ...Option) *redis.Pool {
	o := defaultPoolOptions()
	for _, opt := range opts {
		opt(&o)
	}
	dialOpts := o.dialOptions()

	return &redis.Pool{
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", endpoint, dialOpts...)
		},
		TestOnBorrow: func(conn redis.Conn, idleSince time.Time) error {
			if time.Since(idleSince) < idlePingThreshold {
				return nil
			}
			_, err := conn.Do("PING")
			return err
		},
		MaxIdle:     o.maxIdle,
		MaxActive:   o.maxActive,
		Wait:        true,
		IdleTimeout: idleConnTimeout,
	}
}
