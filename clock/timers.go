package clock

import (
	"sync"
	"time"
)

// NewTimers returns a Scheduler backed by time.AfterFunc. Each callback runs on its own goroutine.
func NewTimers() Scheduler {
	return &timers{pending: map[Handle]*time.Timer{}}
}

type timers struct {
	mu      sync.Mutex
	lastID  Handle
	pending map[Handle]*time.Timer
}

func (t *timers) Now() time.Time {
	return time.Now()
}

func (t *timers) Schedule(fn func(), delay time.Duration) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastID++
	id := t.lastID
	t.pending[id] = time.AfterFunc(delay, func() {
		t.forget(id)
		fn()
	})
	return id
}

func (t *timers) Cancel(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.pending[h]; ok {
		timer.Stop()
		delete(t.pending, h)
	}
}

func (t *timers) forget(h Handle) {
	t.mu.Lock()
	delete(t.pending, h)
	t.mu.Unlock()
}
