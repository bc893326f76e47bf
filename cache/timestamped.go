package cache

import (
	"time"
)

// Timestamped is a fetched value together with the time the fetch completed. A new fetch produces a new Timestamped;
// existing ones are never modified.
type Timestamped[T any] struct {
	Value     T         `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

func newTimestamped[T any](value T, now time.Time) Timestamped[T] {
	return Timestamped[T]{Value: value, Timestamp: now}
}

// youngerThan reports whether the value is still inside a window of maxAge measured from its timestamp.
func (t Timestamped[T]) youngerThan(now time.Time, maxAge time.Duration) bool {
	return now.Before(t.Timestamp.Add(maxAge))
}

// Kind tells where the value returned by Timed.Get came from.
type Kind int

const (
	// Fresh values were fetched during the call.
	Fresh Kind = iota
	// Cached values were inside the cache duration.
	Cached
	// Fallback values were past the cache duration, but the refresh failed and they were inside the fallback duration.
	Fallback
)

func (k Kind) String() string {
	switch k {
	case Fresh:
		return "fresh"
	case Cached:
		return "cached"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is a value returned by Timed.Get, tagged with its provenance.
type Result[T any] struct {
	Timestamped[T]
	Kind Kind `json:"type"`
}
