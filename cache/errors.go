package cache

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotInitialized is returned by Polled accessors called before Init.
	ErrNotInitialized = errors.New("Cannot retrieve value. Call Init() first")
	// ErrNoSuccessfulFetch is returned by Polled.Require when no fetch has succeeded yet.
	ErrNoSuccessfulFetch = errors.New("Cannot retrieve polled value. No fetch has succeeded")
	// ErrDisposed is returned by Polled.Init when Dispose is called before its first fetch completes.
	ErrDisposed = errors.New("Polled cache was disposed during Init")
)

// FetchError is returned by Timed.Get when the fetch function fails and there is no value left to fall back to.
// errors.Cause returns the error of the fetch function.
type FetchError struct {
	cause error
}

func newFetchError(cause error) *FetchError {
	return &FetchError{cause: errors.WithStack(cause)}
}

func (e *FetchError) Error() string {
	return "Failed to fetch data and no fallback version found: " + e.cause.Error()
}

// Cause returns the error of the fetch function, for errors.Cause.
func (e *FetchError) Cause() error {
	return errors.Cause(e.cause)
}

// Unwrap returns the fetch error with the stack recorded where it was wrapped.
func (e *FetchError) Unwrap() error {
	return e.cause
}
