package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoop(t *testing.T) {
	Convey("Runs scheduled callbacks", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := NewLoop(ctx, 5)

		done := make(chan struct{})
		h := loop.Schedule(func() { close(done) }, time.Millisecond)

		So(h, ShouldNotEqual, Handle(0))
		<-done
	}))

	Convey("Issues distinct handles", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := NewLoop(ctx, 5)

		h1 := loop.Schedule(func() {}, time.Hour)
		h2 := loop.Schedule(func() {}, time.Hour)
		So(h1, ShouldNotEqual, h2)
	}))

	Convey("Does not run cancelled callbacks", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := NewLoop(ctx, 5)

		var ran int32
		h := loop.Schedule(func() { atomic.StoreInt32(&ran, 1) }, 5*time.Millisecond)
		loop.Cancel(h)

		done := make(chan struct{})
		loop.Schedule(func() { close(done) }, 20*time.Millisecond)
		<-done

		So(atomic.LoadInt32(&ran), ShouldEqual, 0)
	}))

	Convey("Executes a single callback at a time", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := NewLoop(ctx, 1)

		numJobs := 20
		var running, overlaps int32
		finished := make(chan struct{}, numJobs)
		for i := 0; i < numJobs; i++ {
			loop.Schedule(func() {
				if atomic.AddInt32(&running, 1) > 1 {
					atomic.AddInt32(&overlaps, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&running, -1)
				finished <- struct{}{}
			}, 0)
		}
		for i := 0; i < numJobs; i++ {
			<-finished
		}

		So(atomic.LoadInt32(&overlaps), ShouldEqual, 0)
	}))

	Convey("Recovers from panics in callbacks", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := NewLoop(ctx, 5)

		loop.Schedule(func() { panic("omg! 😱") }, 0)

		done := make(chan struct{})
		loop.Schedule(func() { close(done) }, 5*time.Millisecond)
		<-done
	}))

	Convey("Drops callbacks after the context is done", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		loop := NewLoop(ctx, 5)
		cancel()

		var ran int32
		loop.Schedule(func() { atomic.StoreInt32(&ran, 1) }, 0)
		time.Sleep(10 * time.Millisecond)

		So(atomic.LoadInt32(&ran), ShouldEqual, 0)
	}))

	Convey("Forgets callbacks once the context is done", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		loop := NewLoop(ctx, 5)

		loop.Schedule(func() {}, time.Millisecond)
		loop.Schedule(func() {}, time.Millisecond)
		cancel()

		var last Handle
		for i := 0; i < 100; i++ {
			h := loop.Schedule(func() {}, time.Millisecond)
			So(h, ShouldBeGreaterThan, last)
			last = h
		}
		for loop.Armed() > 0 {
			time.Sleep(time.Millisecond)
		}
		So(loop.Armed(), ShouldEqual, 0)
	}))

	Convey("Forgets callbacks once they run", t, withTimeout(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := NewLoop(ctx, 5)

		done := make(chan struct{})
		loop.Schedule(func() { close(done) }, time.Millisecond)
		h := loop.Schedule(func() {}, time.Hour)
		<-done

		So(loop.Armed(), ShouldEqual, 1)
		loop.Cancel(h)
		So(loop.Armed(), ShouldEqual, 0)
	}))
}

func TestTimers(t *testing.T) {
	Convey("Runs scheduled callbacks", t, withTimeout(func() {
		timers := NewTimers()
		done := make(chan struct{})
		timers.Schedule(func() { close(done) }, time.Millisecond)
		<-done
	}))

	Convey("Does not run cancelled callbacks", t, withTimeout(func() {
		timers := NewTimers()

		var ran int32
		h := timers.Schedule(func() { atomic.StoreInt32(&ran, 1) }, 5*time.Millisecond)
		timers.Cancel(h)
		time.Sleep(20 * time.Millisecond)

		So(atomic.LoadInt32(&ran), ShouldEqual, 0)
	}))

	Convey("Ignores unknown handles", t, func() {
		So(func() { NewTimers().Cancel(Handle(42)) }, ShouldNotPanic)
	})

	Convey("System clock follows wall time", t, func() {
		before := time.Now()
		So(System().Now(), ShouldHappenOnOrAfter, before)
	})
}
