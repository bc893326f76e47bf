package cache

import (
	"context"
	"sync"
)

// NewMemory returns a Store that keeps the value in process memory.
func NewMemory[T any]() Store[T] {
	return &memStore[T]{}
}

type memStore[T any] struct {
	mu    sync.RWMutex
	value *Timestamped[T]
}

func (s *memStore[T]) Load(context.Context) (Timestamped[T], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.value == nil {
		return Timestamped[T]{}, false, nil
	}
	return *s.value, true, nil
}

func (s *memStore[T]) Save(_ context.Context, value Timestamped[T]) error {
	s.mu.Lock()
	s.value = &value
	s.mu.Unlock()
	return nil
}

func (s *memStore[T]) Clear(context.Context) error {
	s.mu.Lock()
	s.value = nil
	s.mu.Unlock()
	return nil
}
