package sharedflight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Group coalesces concurrent calls with the same key into a single execution whose result is shared by all callers.
// The function runs with a UnionContext of the callers' contexts, so it is only cancelled when every caller is gone.
// The zero value is ready to use.
type Group[T any] struct {
	mu           sync.Mutex
	contexts     map[string]*sharedContext
	singleFlight singleflight.Group
}

type sharedContext struct {
	*unionContext
	callers int
}

// Do runs fn once for all concurrent calls with the same key. shared reports whether the result was given to more
// than one caller.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (v T, err error, shared bool) {
	if err := ctx.Err(); err != nil {
		return v, err, false
	}

	sharedCtx := g.join(key, ctx)
	defer g.leave(key, sharedCtx)

	res, err, shared := g.singleFlight.Do(key, func() (interface{}, error) {
		return fn(sharedCtx)
	})
	if res != nil {
		v = res.(T)
	}
	return v, err, shared
}

func (g *Group[T]) join(key string, base context.Context) *sharedContext {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.contexts == nil {
		g.contexts = map[string]*sharedContext{}
	}

	sharedCtx, ok := g.contexts[key]
	if ok && sharedCtx.AddContext(base) {
		sharedCtx.callers++
		return sharedCtx
	}

	sharedCtx = &sharedContext{unionContext: newUnionContext(base), callers: 1}
	g.contexts[key] = sharedCtx
	return sharedCtx
}

func (g *Group[T]) leave(key string, sharedCtx *sharedContext) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sharedCtx.callers--
	if sharedCtx.callers > 0 {
		return
	}
	if g.contexts[key] == sharedCtx {
		delete(g.contexts, key)
	}
	sharedCtx.release()
}
