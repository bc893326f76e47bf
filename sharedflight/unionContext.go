package sharedflight

import (
	"context"
	"sync"
	"time"
)

// UnionContext is a context shared by several callers. It is done once every context added to it is done, and looks
// values up in all of them in the order they were added.
type UnionContext interface {
	context.Context
	// AddContext joins ctx to the union. It returns false if the union is already done, in which case a new union
	// must be created.
	AddContext(ctx context.Context) bool
}

type unionContext struct {
	inner  context.Context
	cancel context.CancelFunc

	mu          sync.RWMutex
	subContexts []context.Context
	live        int
	stops       []func() bool
}

func NewUnionContext(base context.Context) UnionContext {
	return newUnionContext(base)
}

func newUnionContext(base context.Context) *unionContext {
	inner, cancel := context.WithCancel(context.Background())
	union := &unionContext{inner: inner, cancel: cancel}
	union.AddContext(base)
	return union
}

func (u *unionContext) Deadline() (time.Time, bool) {
	return u.inner.Deadline()
}

func (u *unionContext) Done() <-chan struct{} {
	return u.inner.Done()
}

func (u *unionContext) Err() error {
	return u.inner.Err()
}

func (u *unionContext) Value(key interface{}) interface{} {
	u.mu.RLock()
	defer u.mu.RUnlock()
	for _, ctx := range u.subContexts {
		if val := ctx.Value(key); val != nil {
			return val
		}
	}
	return nil
}

func (u *unionContext) AddContext(ctx context.Context) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.Err() != nil {
		return false
	}
	u.subContexts = append(u.subContexts, ctx)
	u.live++
	u.stops = append(u.stops, context.AfterFunc(ctx, u.leave))
	return true
}

func (u *unionContext) leave() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.live--
	if u.live == 0 {
		u.cancel()
	}
}

// release cancels the union regardless of its sub contexts and stops watching them.
func (u *unionContext) release() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.cancel()
	for _, stop := range u.stops {
		stop()
	}
	u.stops = nil
}
