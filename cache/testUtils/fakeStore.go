package testUtils

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/vtex/go-fetch/cache"
)

var (
	methodLoad  = "Load"
	methodSave  = "Save"
	methodClear = "Clear"
)

// FakeStore is an in-memory cache.Store whose methods can be made to fail and whose calls are counted.
type FakeStore[T any] struct {
	mu     sync.Mutex
	value  *cache.Timestamped[T]
	toFail map[string]error
	calls  map[string]int
}

func NewFakeStore[T any]() *FakeStore[T] {
	s := &FakeStore[T]{}
	return s.Reset()
}

func (s *FakeStore[T]) Reset() *FakeStore[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = nil
	s.toFail = map[string]error{}
	s.calls = map[string]int{}
	return s
}

func (s *FakeStore[T]) Load(ctx context.Context) (cache.Timestamped[T], bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[methodLoad]++
	if err := s.toFail[methodLoad]; err != nil {
		return cache.Timestamped[T]{}, false, err
	}
	if s.value == nil {
		return cache.Timestamped[T]{}, false, nil
	}
	return *s.value, true, nil
}

func (s *FakeStore[T]) Save(ctx context.Context, value cache.Timestamped[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[methodSave]++
	if err := s.toFail[methodSave]; err != nil {
		return err
	}
	s.value = &value
	return nil
}

func (s *FakeStore[T]) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[methodClear]++
	if err := s.toFail[methodClear]; err != nil {
		return err
	}
	s.value = nil
	return nil
}

// Populate stores a value without counting it as a call.
func (s *FakeStore[T]) Populate(value cache.Timestamped[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = &value
}

func (s *FakeStore[T]) FailLoad(err error) {
	s.failMethod(methodLoad, err)
}

func (s *FakeStore[T]) FailSave(err error) {
	s.failMethod(methodSave, err)
}

func (s *FakeStore[T]) FailClear(err error) {
	s.failMethod(methodClear, err)
}

func (s *FakeStore[T]) LoadMustHaveBeenCalled(times int) error {
	return s.ensureCalled(methodLoad, times)
}

func (s *FakeStore[T]) SaveMustHaveBeenCalled(times int) error {
	return s.ensureCalled(methodSave, times)
}

func (s *FakeStore[T]) ClearMustHaveBeenCalled(times int) error {
	return s.ensureCalled(methodClear, times)
}

func (s *FakeStore[T]) failMethod(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toFail[method] = err
}

func (s *FakeStore[T]) ensureCalled(method string, times int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count := s.calls[method]; count != times {
		return errors.Errorf("Expected %s to have been called %d times, but it was called %d times", method, times, count)
	}
	return nil
}
