package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vtex/go-fetch/clock"
)

const defaultMaxRetries = 5

// Polled periodically fetches a value so it is always available in advance. After Init it fetches on every poll
// interval; failed polls are retried on the retry interval up to a number of consecutive times before reverting to
// the poll interval until a fetch succeeds again.
//
// Failures of scheduled polls never reach the scheduler. They are logged and reported through the OnError callback.
type Polled[T any] struct {
	fetch              FetchFunc[T]
	scheduler          clock.Scheduler
	pollInterval       time.Duration
	retryInterval      *time.Duration
	maxRetries         int
	requireInitSuccess bool
	onError            func(error)
	onUpdate           func(Timestamped[T])
	name               string
	metrics            Metrics

	mu          sync.Mutex
	initialized bool
	data        *Timestamped[T]
	failures    int
	timer       clock.Handle
	// generation changes on every Dispose. Work started under an older generation must not store values nor arm
	// timers once it completes.
	generation uint64
	pollCtx    context.Context
	cancelPoll context.CancelFunc
}

// NewPolled creates a Polled cache. Nothing is fetched until Init is called. The scheduler's timestamps and delays
// can be measured in any unit, as long as it matches the one used for the poll and retry intervals.
func NewPolled[T any](fetch FetchFunc[T], scheduler clock.Scheduler, pollInterval time.Duration, opts ...PollOption[T]) *Polled[T] {
	p := &Polled[T]{
		fetch:              fetch,
		scheduler:          scheduler,
		pollInterval:       pollInterval,
		maxRetries:         defaultMaxRetries,
		requireInitSuccess: true,
		name:               defaultCacheName,
		metrics:            noopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pollCtx, p.cancelPoll = context.WithCancel(context.Background())
	return p
}

// Init fetches the value and starts polling. It returns the error of the first fetch, unless initialization success
// is not required, in which case the failure is treated like a failed poll and polling starts anyway. If Dispose is
// called before the first fetch completes, Init returns ErrDisposed and the cache stays uninitialized.
func (p *Polled[T]) Init(ctx context.Context) error {
	p.mu.Lock()
	gen := p.generation
	mustFetch := p.data == nil && p.requireInitSuccess
	p.metrics.SetConsecutiveFailures(p.name, p.failures)
	p.mu.Unlock()

	if mustFetch {
		if _, err := p.fetchAndStore(ctx, gen); err != nil {
			return err
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if gen != p.generation {
			return ErrDisposed
		}
		p.armLocked(p.pollInterval)
		p.initialized = true
		return nil
	}

	p.poll(ctx, gen)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return ErrDisposed
	}
	p.initialized = true
	return nil
}

// Dispose stops polling. Polling can be started again by calling Init. A poll that is in flight when Dispose is
// called has its context cancelled, and its result is discarded.
func (p *Polled[T]) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != 0 {
		p.scheduler.Cancel(p.timer)
		p.timer = 0
	}
	p.generation++
	p.cancelPoll()
	p.pollCtx, p.cancelPoll = context.WithCancel(context.Background())
	p.initialized = false
}

// Get returns the latest value and whether there is one. There can only be no value if initialization success is not
// required and no fetch has succeeded yet. Use Require to guarantee a value.
func (p *Polled[T]) Get() (Timestamped[T], bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return Timestamped[T]{}, false, ErrNotInitialized
	}
	if p.data == nil {
		return Timestamped[T]{}, false, nil
	}
	return *p.data, true, nil
}

// Require returns the latest value, or ErrNoSuccessfulFetch if no fetch has succeeded yet.
func (p *Polled[T]) Require() (Timestamped[T], error) {
	value, ok, err := p.Get()
	if err != nil {
		return Timestamped[T]{}, err
	}
	if !ok {
		return Timestamped[T]{}, ErrNoSuccessfulFetch
	}
	return value, nil
}

// Fetch ignores the polled value and fetches again, returning the fetch error as it is. Since this refreshes the
// value, the next poll is rescheduled a full poll interval from now.
func (p *Polled[T]) Fetch(ctx context.Context) (Timestamped[T], error) {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return Timestamped[T]{}, ErrNotInitialized
	}
	gen := p.generation
	p.mu.Unlock()

	value, err := p.fetchAndStore(ctx, gen)
	if err != nil {
		return Timestamped[T]{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen == p.generation {
		p.setFailuresLocked(0)
		p.armLocked(p.pollInterval)
	}
	return value, nil
}

// ConsecutiveFailures returns how many polls failed since the last successful fetch.
func (p *Polled[T]) ConsecutiveFailures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func (p *Polled[T]) onTimer(gen uint64, handle *clock.Handle) {
	p.mu.Lock()
	if gen != p.generation || p.timer != *handle {
		// Cancelled after it had already fired.
		p.mu.Unlock()
		return
	}
	p.timer = 0
	ctx := p.pollCtx
	p.mu.Unlock()

	p.poll(ctx, gen)
}

func (p *Polled[T]) poll(ctx context.Context, gen uint64) {
	_, err := p.safeFetchAndStore(ctx, gen)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	if err == nil {
		p.setFailuresLocked(0)
		p.armLocked(p.pollInterval)
		p.mu.Unlock()
		return
	}

	delay := p.pollInterval
	if p.retryInterval != nil && p.failures < p.maxRetries {
		delay = *p.retryInterval
	}
	p.armLocked(delay)
	p.setFailuresLocked(p.failures + 1)
	failures := p.failures
	p.mu.Unlock()

	logPollFailed(p.name, failures, delay, err)
	if p.onError != nil {
		p.onError(err)
	}
}

// safeFetchAndStore turns panics of the fetch function into errors, so they can be handled like any other failed poll.
func (p *Polled[T]) safeFetchAndStore(ctx context.Context, gen uint64) (value Timestamped[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			switch rerr := r.(type) {
			case error:
				err = errors.Wrap(rerr, "Panic in fetch function")
			default:
				err = errors.Errorf("Panic in fetch function: %v", rerr)
			}
		}
	}()
	return p.fetchAndStore(ctx, gen)
}

func (p *Polled[T]) fetchAndStore(ctx context.Context, gen uint64) (Timestamped[T], error) {
	started := time.Now()
	value, err := p.fetch(ctx)
	p.metrics.ObserveFetch(p.name, started, err)
	if err != nil {
		return Timestamped[T]{}, err
	}

	p.mu.Lock()
	stamped := newTimestamped(value, p.scheduler.Now())
	if gen != p.generation {
		p.mu.Unlock()
		return stamped, nil
	}
	p.data = &stamped
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(stamped)
	}
	return stamped, nil
}

// armLocked replaces any pending timer with a new one firing after delay. Must be called with the lock held.
func (p *Polled[T]) armLocked(delay time.Duration) {
	if p.timer != 0 {
		p.scheduler.Cancel(p.timer)
		p.timer = 0
	}

	gen := p.generation
	handle := new(clock.Handle)
	*handle = p.scheduler.Schedule(func() { p.onTimer(gen, handle) }, delay)
	p.timer = *handle
}

func (p *Polled[T]) setFailuresLocked(n int) {
	if n == p.failures {
		return
	}
	p.failures = n
	p.metrics.SetConsecutiveFailures(p.name, n)
}

func logPollFailed(name string, failures int, nextDelay time.Duration, err error) {
	logger(polledCacheLogCategory, "poll_failed", name).
		WithField("consecutiveFailures", failures).
		WithField("nextDelay", nextDelay.String()).
		WithError(err).
		Warn("Scheduled fetch failed")
}
