package clock

import (
	"time"
)

// Clock provides the current time. Caches read time through it instead of calling time.Now directly so tests can
// drive them with a virtual clock.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to a Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

// System returns the wall clock.
func System() Clock {
	return Func(time.Now)
}

// Handle identifies a scheduled callback. Schedulers never issue the zero Handle, so it can be used as "no timer".
type Handle uint64

// Scheduler manages time and runs callbacks after a delay. Delays are measured in the same unit as the timestamps
// returned by Now.
type Scheduler interface {
	Clock
	// Schedule arranges for fn to be called once after delay has passed.
	Schedule(fn func(), delay time.Duration) Handle
	// Cancel stops a pending callback. Cancelling a handle that already fired or is unknown is a no-op.
	Cancel(h Handle)
}
