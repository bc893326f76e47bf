package testUtils

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vtex/go-fetch/clock"
)

// Epoch is the virtual time a FakeScheduler starts at.
var Epoch = time.Unix(0, 0).UTC()

// Unit is the duration tests use as one tick of virtual time.
const Unit = time.Second

// At returns the virtual time n ticks after Epoch.
func At(n int) time.Time {
	return Epoch.Add(time.Duration(n) * Unit)
}

// Ticks returns a duration of n ticks.
func Ticks(n int) time.Duration {
	return time.Duration(n) * Unit
}

// ScheduledCall describes a callback handed to a FakeScheduler.
type ScheduledCall struct {
	ID    clock.Handle
	Delay time.Duration

	callback func()
}

// FakeScheduler is a virtual clock. Time only moves when a test sets it or fires a pending callback, which advances
// the clock by the callback's delay before running it.
type FakeScheduler struct {
	mu        sync.Mutex
	now       time.Time
	lastID    clock.Handle
	latest    *ScheduledCall
	pending   map[clock.Handle]*ScheduledCall
	scheduled int
	cancelled []clock.Handle
}

func NewFakeScheduler() *FakeScheduler {
	s := &FakeScheduler{}
	return s.Reset()
}

func (s *FakeScheduler) Reset() *FakeScheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = Epoch
	s.lastID = 0
	s.latest = nil
	s.pending = map[clock.Handle]*ScheduledCall{}
	s.scheduled = 0
	s.cancelled = nil
	return s
}

func (s *FakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// SetTime moves the virtual clock to n ticks after Epoch without firing anything.
func (s *FakeScheduler) SetTime(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = At(n)
}

func (s *FakeScheduler) Schedule(fn func(), delay time.Duration) clock.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	call := &ScheduledCall{ID: s.lastID, Delay: delay, callback: fn}
	s.pending[call.ID] = call
	s.latest = call
	s.scheduled++
	return call.ID
}

func (s *FakeScheduler) Cancel(h clock.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = append(s.cancelled, h)
	delete(s.pending, h)
}

// Current returns the most recently scheduled callback, if it is still pending.
func (s *FakeScheduler) Current() (ScheduledCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return ScheduledCall{}, false
	}
	if _, ok := s.pending[s.latest.ID]; !ok {
		return ScheduledCall{}, false
	}
	return *s.latest, true
}

// Fire advances the clock by the delay of the most recently scheduled callback and runs it.
func (s *FakeScheduler) Fire() error {
	s.mu.Lock()
	call := s.latest
	if call == nil {
		s.mu.Unlock()
		return errors.Errorf("Expected a pending callback, but none was scheduled")
	}
	if _, ok := s.pending[call.ID]; !ok {
		s.mu.Unlock()
		return errors.Errorf("Expected callback %d to be pending, but it was cancelled or already fired", call.ID)
	}
	delete(s.pending, call.ID)
	s.now = s.now.Add(call.Delay)
	s.mu.Unlock()

	call.callback()
	return nil
}

// Pending returns how many callbacks are waiting to fire.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *FakeScheduler) ScheduleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

func (s *FakeScheduler) Cancelled() []clock.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clock.Handle(nil), s.cancelled...)
}
