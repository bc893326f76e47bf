package sharedflight

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

const defaultTimeout = 1 * time.Second

type ctxKey string

func TestGroup(t *testing.T) {
	Convey("Runs the function and returns its result", t, withTimeout(func() {
		var g Group[string]
		v, err, shared := g.Do(context.Background(), "key", func(context.Context) (string, error) {
			return "value", nil
		})
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "value")
		So(shared, ShouldBeFalse)
		So(g.contexts, ShouldBeEmpty)
	}))

	Convey("Returns errors", t, withTimeout(func() {
		var g Group[int]
		expectedErr := errors.New("I am expected")
		_, err, _ := g.Do(context.Background(), "key", func(context.Context) (int, error) {
			return 0, expectedErr
		})
		So(err, ShouldEqual, expectedErr)
	}))

	Convey("Coalesces concurrent calls", t, withTimeout(func() {
		var g Group[int]
		var calls int32
		release := make(chan struct{})
		started := make(chan struct{})

		fn := func(context.Context) (int, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				close(started)
			}
			<-release
			return 42, nil
		}

		results := make(chan int, 2)
		go func() {
			v, _, _ := g.Do(context.Background(), "key", fn)
			results <- v
		}()
		<-started
		go func() {
			v, _, _ := g.Do(context.Background(), "key", fn)
			results <- v
		}()
		waitForCallers(&g, "key", 2)
		// Give the second caller time to reach the flight it joined.
		time.Sleep(20 * time.Millisecond)
		close(release)

		So(<-results, ShouldEqual, 42)
		So(<-results, ShouldEqual, 42)
		So(atomic.LoadInt32(&calls), ShouldEqual, 1)
	}))

	Convey("Keeps running while any caller is waiting", t, withTimeout(func() {
		var g Group[string]
		release := make(chan struct{})
		started := make(chan struct{})

		var once sync.Once
		first, cancelFirst := context.WithCancel(context.Background())
		fn := func(ctx context.Context) (string, error) {
			once.Do(func() { close(started) })
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-release:
				return "done", nil
			}
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do(first, "key", fn)
		}()
		<-started

		second := context.WithValue(context.Background(), ctxKey("caller"), "second")
		results := make(chan string, 1)
		go func() {
			v, _, _ := g.Do(second, "key", fn)
			results <- v
		}()
		waitForCallers(&g, "key", 2)

		cancelFirst()
		close(release)
		So(<-results, ShouldEqual, "done")
		wg.Wait()
	}))

	Convey("Cancels the shared context once every caller is gone", t, withTimeout(func() {
		var g Group[string]
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})

		go func() {
			<-started
			cancel()
		}()
		_, err, _ := g.Do(ctx, "key", func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		})
		So(err, ShouldEqual, context.Canceled)
	}))
}

func TestUnionContext(t *testing.T) {
	Convey("Looks values up in every joined context", t, withTimeout(func() {
		first := context.WithValue(context.Background(), ctxKey("a"), 1)
		second := context.WithValue(context.Background(), ctxKey("b"), 2)

		union := NewUnionContext(first)
		So(union.AddContext(second), ShouldBeTrue)
		So(union.Value(ctxKey("a")), ShouldEqual, 1)
		So(union.Value(ctxKey("b")), ShouldEqual, 2)
		So(union.Value(ctxKey("c")), ShouldBeNil)
	}))

	Convey("Refuses new contexts once done", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		union := NewUnionContext(ctx)
		cancel()
		<-union.Done()

		So(union.Err(), ShouldEqual, context.Canceled)
		So(union.AddContext(context.Background()), ShouldBeFalse)
	}))
}

func waitForCallers[T any](g *Group[T], key string, n int) {
	for {
		g.mu.Lock()
		shared := g.contexts[key]
		count := 0
		if shared != nil {
			count = shared.callers
		}
		g.mu.Unlock()
		if count >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func withTimeout(f func()) func() {
	return func() {
		done := make(chan struct{})
		defer close(done)

		go func() {
			select {
			case <-done:
			case <-time.After(defaultTimeout):
				panic("Timeout in sharedflight tests!")
			}
		}()

		f()
	}
}
