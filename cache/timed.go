package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/vtex/go-fetch/clock"
)

const defaultCacheName = "default"

// Timed caches the result of a fetch function for a given duration to avoid repeated fetches. When a refresh fails,
// a value that has outlived the cache duration can still be served for as long as the fallback duration allows.
//
// Concurrent calls while a fetch is in flight may fetch in duplicate; the most recently completed fetch wins.
type Timed[T any] struct {
	fetch            FetchFunc[T]
	clock            clock.Clock
	cacheDuration    time.Duration
	fallbackDuration time.Duration

	store   Store[T]
	name    string
	metrics Metrics
}

// NewTimed creates a Timed cache. Timestamps come from clk and can be measured in any unit, as long as it matches
// the one used for the cache and fallback durations.
func NewTimed[T any](fetch FetchFunc[T], clk clock.Clock, cacheDuration time.Duration, opts ...TimedOption[T]) *Timed[T] {
	c := &Timed[T]{
		fetch:         fetch,
		clock:         clk,
		cacheDuration: cacheDuration,
		store:         NewMemory[T](),
		name:          defaultCacheName,
		metrics:       noopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value if it is inside the cache duration, or fetches a fresh one otherwise. If that fetch
// fails, the previous value is returned as long as it is inside the fallback duration. Otherwise a *FetchError is
// returned.
func (c *Timed[T]) Get(ctx context.Context) (Result[T], error) {
	if stored, ok := c.load(ctx); ok && stored.youngerThan(c.clock.Now(), c.cacheDuration) {
		c.metrics.ObserveGet(c.name, Cached.String())
		return Result[T]{Timestamped: stored, Kind: Cached}, nil
	}

	fresh, fetchErr := c.Fetch(ctx)
	if fetchErr == nil {
		c.metrics.ObserveGet(c.name, Fresh.String())
		return Result[T]{Timestamped: fresh, Kind: Fresh}, nil
	}

	if stored, ok := c.load(ctx); ok && stored.youngerThan(c.clock.Now(), c.fallbackDuration) {
		// We have an error, but we want to behave as if we do not. Just log it.
		logFallbackUsed(c.name, stored, fetchErr)
		c.metrics.ObserveGet(c.name, Fallback.String())
		return Result[T]{Timestamped: stored, Kind: Fallback}, nil
	}

	c.metrics.ObserveGet(c.name, "error")
	return Result[T]{}, newFetchError(fetchErr)
}

// Fetch ignores the cache and calls the fetch function. The result is cached for future access. Errors from the
// fetch function are returned as they are.
func (c *Timed[T]) Fetch(ctx context.Context) (Timestamped[T], error) {
	started := time.Now()
	value, err := c.fetch(ctx)
	c.metrics.ObserveFetch(c.name, started, err)
	if err != nil {
		return Timestamped[T]{}, err
	}

	stamped := newTimestamped(value, c.clock.Now())
	if err := c.store.Save(ctx, stamped); err != nil {
		// The fetched value is still good for this caller, only future calls will miss it.
		logSaveError(c.name, err)
	}
	return stamped, nil
}

// Clear forgets the cached value so the next access fetches again, regardless of age.
func (c *Timed[T]) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return errors.Wrapf(err, "Failed to clear cache %s", c.name)
	}
	return nil
}

func (c *Timed[T]) load(ctx context.Context) (Timestamped[T], bool) {
	stored, ok, err := c.store.Load(ctx)
	if err != nil {
		// Log and behave as a miss, we can still try to fetch fresh data.
		logLoadError(c.name, err)
		return Timestamped[T]{}, false
	}
	return stored, ok
}

func logFallbackUsed[T any](name string, stored Timestamped[T], err error) {
	logger(timedCacheLogCategory, "used_fallback_value", name).
		WithField("timestamp", stored.Timestamp).
		WithError(err).
		Warn("Fallback value used")
}

func logLoadError(name string, err error) {
	logger(timedCacheLogCategory, "load_from_store_error", name).
		WithError(err).
		Error("Failed to load data from store")
}

func logSaveError(name string, err error) {
	logger(timedCacheLogCategory, "save_to_store_error", name).
		WithError(err).
		Error("Failed to save data to store")
}
