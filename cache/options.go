package cache

import (
	"time"
)

// TimedOption configures a Timed cache.
type TimedOption[T any] func(*Timed[T])

// WithFallback sets how long, counted from the fetch that produced it, a value may still be served when a refresh
// fails. The default of zero never falls back.
func WithFallback[T any](d time.Duration) TimedOption[T] {
	return func(c *Timed[T]) { c.fallbackDuration = d }
}

// WithStore replaces the default in-memory store.
func WithStore[T any](s Store[T]) TimedOption[T] {
	return func(c *Timed[T]) { c.store = s }
}

// WithTimedName labels the cache in logs and metrics.
func WithTimedName[T any](name string) TimedOption[T] {
	return func(c *Timed[T]) { c.name = name }
}

// WithTimedMetrics reports gets and fetches to m. By default nothing is reported.
func WithTimedMetrics[T any](m Metrics) TimedOption[T] {
	return func(c *Timed[T]) { c.metrics = m }
}

// PollOption configures a Polled cache.
type PollOption[T any] func(*Polled[T])

// WithRetryInterval sets the delay used after a failed poll. Without it the poll interval is used.
func WithRetryInterval[T any](d time.Duration) PollOption[T] {
	return func(p *Polled[T]) { p.retryInterval = &d }
}

// WithMaxRetries sets how many consecutive failures use the retry interval before reverting to the poll interval.
// The retry interval is not used again until a fetch succeeds. Default: 5.
func WithMaxRetries[T any](n int) PollOption[T] {
	return func(p *Polled[T]) { p.maxRetries = n }
}

// WithRequireInitSuccess sets whether Init fails when its first fetch fails. Default: true.
func WithRequireInitSuccess[T any](require bool) PollOption[T] {
	return func(p *Polled[T]) { p.requireInitSuccess = require }
}

// WithOnError registers a callback for failed polls. It is not called for the first fetch of Init when
// initialization success is required, since Init returns that error instead.
func WithOnError[T any](fn func(error)) PollOption[T] {
	return func(p *Polled[T]) { p.onError = fn }
}

// WithOnUpdate registers a callback for every value stored by the cache.
func WithOnUpdate[T any](fn func(Timestamped[T])) PollOption[T] {
	return func(p *Polled[T]) { p.onUpdate = fn }
}

// WithPollName labels the cache in logs and metrics.
func WithPollName[T any](name string) PollOption[T] {
	return func(p *Polled[T]) { p.name = name }
}

// WithPollMetrics reports fetches and consecutive failures to m. By default nothing is reported.
func WithPollMetrics[T any](m Metrics) PollOption[T] {
	return func(p *Polled[T]) { p.metrics = m }
}
