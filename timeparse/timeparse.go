// Package timeparse reads times of day typed by people, such as "16:00", "8am" or "6.40 pm".
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Half is the half of the day of a 12-hour time.
type Half string

const (
	AM Half = "am"
	PM Half = "pm"
)

// Time is a time of day in 24-hour form.
type Time struct {
	Hour   int
	Minute int
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	// Does not match "8", "1600" nor "8:0 pm".
	userTime = regexp.MustCompile(`^([0-9]{1,2})(?:[:.]([0-9]{2}))? ?([ap]m)?$`)
)

// Parse accepts 24-hour times ("16:00", "14.50") and 12-hour times with or without minutes ("8am", "9:00am",
// "6.40 pm"), ignoring case and extra whitespace. It reports false for anything else, including out of range values.
func Parse(input string) (Time, bool) {
	normalized := strings.ToLower(strings.TrimSpace(whitespace.ReplaceAllString(input, " ")))

	match := userTime.FindStringSubmatch(normalized)
	if match == nil {
		return Time{}, false
	}
	hourStr, minuteStr, half := match[1], match[2], Half(match[3])
	if minuteStr == "" && half == "" {
		return Time{}, false
	}

	hour, _ := strconv.Atoi(hourStr)
	minute := 0
	if minuteStr != "" {
		minute, _ = strconv.Atoi(minuteStr)
		if minute > 59 {
			return Time{}, false
		}
	}

	if half != "" {
		if hour < 1 || hour > 12 {
			return Time{}, false
		}
		return Time{Hour: Hour12To24(hour, half), Minute: minute}, true
	}

	if hour > 23 {
		return Time{}, false
	}
	return Time{Hour: hour, Minute: minute}, true
}

// Hour12To24 converts an hour between 1 and 12 to its 24-hour form.
func Hour12To24(hour int, half Half) int {
	if half == PM {
		return hour%12 + 12
	}
	return hour % 12
}

// Hour24To12 converts an hour between 0 and 23 to its 12-hour form.
func Hour24To12(hour int) (int, Half) {
	half := AM
	if hour >= 12 {
		half = PM
	}
	return ((hour-1)%12+12)%12 + 1, half
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Next returns the first instant after now, in now's location, at which the wall clock shows t.
func (t Time) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, t.Hour, t.Minute, 0, 0, now.Location())
	}
	return next
}
