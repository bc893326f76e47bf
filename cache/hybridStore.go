package cache

import (
	"context"

	"github.com/pkg/errors"
)

const (
	hybridStoreLogCategory = "hybrid_store"
)

// Hybrid keeps the value in both a local and a remote store. Loads are served by the local store when possible, and
// values found only in the remote one are copied to the local one.
func Hybrid[T any](local, remote Store[T]) Store[T] {
	return &hybridStore[T]{local: local, remote: remote}
}

type hybridStore[T any] struct {
	local  Store[T]
	remote Store[T]
}

func (s *hybridStore[T]) Load(ctx context.Context) (Timestamped[T], bool, error) {
	value, ok, localErr := s.local.Load(ctx)
	if localErr != nil {
		// Log, but fall back to remote store to try to avoid disrupting the request.
		logHybridError("load_local_error", localErr)
	} else if ok {
		return value, true, nil
	}

	value, ok, err := s.remote.Load(ctx)
	if err != nil {
		return Timestamped[T]{}, false, errors.Wrap(err, "Unable to load value from remote store")
	}
	if !ok {
		return Timestamped[T]{}, false, localErr
	}

	if err := s.local.Save(ctx, value); err != nil {
		logHybridError("save_local_error", err)
	}
	return value, true, nil
}

func (s *hybridStore[T]) Save(ctx context.Context, value Timestamped[T]) error {
	if err := s.local.Save(ctx, value); err != nil {
		return errors.Wrap(err, "Failed to save value into local store")
	}
	if err := s.remote.Save(ctx, value); err != nil {
		return errors.Wrap(err, "Failed to save value into remote store")
	}
	return nil
}

func (s *hybridStore[T]) Clear(ctx context.Context) error {
	localErr := s.local.Clear(ctx)
	if err := s.remote.Clear(ctx); err != nil {
		return errors.Wrap(err, "Failed to clear remote store")
	}
	if localErr != nil {
		return errors.Wrap(localErr, "Failed to clear local store")
	}
	return nil
}

func logHybridError(code string, err error) {
	logger(hybridStoreLogCategory, code, "").
		WithError(err).
		Error("Local store failed")
}
