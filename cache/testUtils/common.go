package testUtils

import (
	"context"
	"sync"

	. "github.com/smartystreets/goconvey/convey"
)

// Fetcher is a controllable fetch function. It returns the configured value until Fail is called, and counts calls.
type Fetcher[T any] struct {
	mu    sync.Mutex
	value T
	err   error
	calls int
}

func NewFetcher[T any](value T) *Fetcher[T] {
	return &Fetcher[T]{value: value}
}

// Set makes subsequent fetches succeed with value.
func (f *Fetcher[T]) Set(value T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
	f.err = nil
}

// Fail makes subsequent fetches fail with err.
func (f *Fetcher[T]) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Fetcher[T]) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fetcher[T]) Fetch(ctx context.Context) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		var zero T
		return zero, f.err
	}
	return f.value, nil
}

// FetchPanic returns a fetch function that should not be called.
func FetchPanic[T any]() func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		// Use "So" to make error clearer.
		So(func() { panic("Fetch function should not have been called") }, ShouldNotPanic)
		var zero T
		return zero, nil
	}
}
