package cache

import (
	"context"
	"time"
)

// FetchFunc does the expensive work whose result is cached.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Store keeps the single value owned by a Timed cache.
type Store[T any] interface {
	Load(ctx context.Context) (value Timestamped[T], ok bool, err error)
	Save(ctx context.Context, value Timestamped[T]) error
	Clear(ctx context.Context) error
}

// Metrics receives events from the caches. Implementations must be safe for concurrent use.
type Metrics interface {
	// ObserveGet is called once per Timed.Get with the kind of result served, or "error".
	ObserveGet(cache, result string)
	// ObserveFetch is called after every call to the fetch function.
	ObserveFetch(cache string, started time.Time, err error)
	// SetConsecutiveFailures reports the failure count of a Polled cache whenever it changes.
	SetConsecutiveFailures(cache string, failures int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveGet(string, string)             {}
func (noopMetrics) ObserveFetch(string, time.Time, error) {}
func (noopMetrics) SetConsecutiveFailures(string, int)    {}
