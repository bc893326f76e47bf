package clock

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop is a Scheduler that runs every fired callback on a single goroutine, one at a time. Callbacks sharing a Loop
// never run concurrently with each other, which lets the caches they drive behave as if they were single-threaded.
// There is no way to stop the loop other than cancelling the context it was started with; callbacks that fire
// afterwards are dropped.
type Loop struct {
	ctx   context.Context
	queue *SyncQueue[*firedJob]

	mu      sync.Mutex
	lastID  Handle
	pending map[Handle]*time.Timer
}

type firedJob struct {
	id Handle
	fn func()
}

func NewLoop(ctx context.Context, initialCapacity int) *Loop {
	loop := &Loop{
		ctx:     ctx,
		queue:   NewSyncQueue[*firedJob](initialCapacity),
		pending: map[Handle]*time.Timer{},
	}
	// A nil job wakes the main loop so it notices the context is done.
	context.AfterFunc(ctx, func() { loop.queue.Enqueue(nil) })
	go loop.mainLoop()
	return loop
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) Schedule(fn func(), delay time.Duration) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	job := &firedJob{id: l.lastID, fn: fn}
	if l.ctx.Err() != nil {
		// Stopped loops never run anything, so there is nothing to arm.
		return job.id
	}
	l.pending[job.id] = time.AfterFunc(delay, func() {
		if l.ctx.Err() != nil {
			l.claim(job.id)
			return
		}
		l.queue.Enqueue(job)
	})
	return job.id
}

func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if timer, ok := l.pending[h]; ok {
		timer.Stop()
		delete(l.pending, h)
	}
}

// Pending returns how many fired callbacks are waiting to run.
func (l *Loop) Pending() int {
	return l.queue.Len()
}

// Armed returns how many callbacks are scheduled and were neither run nor cancelled.
func (l *Loop) Armed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

func (l *Loop) mainLoop() {
	for {
		job := l.queue.Dequeue()
		if l.ctx.Err() != nil {
			return
		}
		if job == nil {
			continue
		}
		// The timer may have fired just before a Cancel; only run jobs that are still pending.
		if !l.claim(job.id) {
			continue
		}
		l.runOne(job)
	}
}

func (l *Loop) claim(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.pending[h]
	delete(l.pending, h)
	return ok
}

func (l *Loop) runOne(job *firedJob) {
	defer recoverAndLog(job)
	job.fn()
}

func recoverAndLog(job *firedJob) {
	panicVal := recover()
	if panicVal == nil {
		return
	}

	logger := logrus.WithFields(logrus.Fields{
		"category":    "fatal_error",
		"code":        "panic",
		"source_file": "clock/loop",
		"panic_value": panicVal,
		"stack":       string(debug.Stack()),
	})
	if job != nil {
		logger = logger.WithField("handle", job.id)
	}
	logger.Errorf("Panic in scheduled callback!")
}
