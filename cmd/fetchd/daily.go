package main

import (
	"github.com/vtex/go-fetch/clock"
	"github.com/vtex/go-fetch/timeparse"
)

// scheduleDaily runs fn every day when the scheduler's clock shows at. It stops when the scheduler does.
func scheduleDaily(sched clock.Scheduler, at timeparse.Time, fn func()) {
	var arm func()
	arm = func() {
		now := sched.Now()
		sched.Schedule(func() {
			fn()
			arm()
		}, at.Next(now).Sub(now))
	}
	arm()
}
