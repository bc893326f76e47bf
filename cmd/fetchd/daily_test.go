package main

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	. "github.com/vtex/go-fetch/cache/testUtils"
	"github.com/vtex/go-fetch/timeparse"
)

func TestScheduleDaily(t *testing.T) {
	Convey("Schedule daily", t, func() {
		sched := NewFakeScheduler()
		runs := 0
		scheduleDaily(sched, timeparse.Time{Hour: 6, Minute: 30}, func() { runs++ })

		call, ok := sched.Current()
		So(ok, ShouldBeTrue)
		So(call.Delay, ShouldEqual, 6*time.Hour+30*time.Minute)

		Convey("It should run at the given time and then every day", func() {
			So(sched.Fire(), ShouldBeNil)
			So(runs, ShouldEqual, 1)
			So(sched.Now(), ShouldEqual, Epoch.Add(6*time.Hour+30*time.Minute))

			call, _ := sched.Current()
			So(call.Delay, ShouldEqual, 24*time.Hour)
			So(sched.Fire(), ShouldBeNil)
			So(runs, ShouldEqual, 2)
		})
	})
}
