package timeparse

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		Convey("It should accept 12-hour times", func() {
			for input, expected := range map[string]Time{
				"12:00am": {0, 0},
				"1.57pm":  {13, 57},
				"1 pm":    {13, 0},
				"8:45 am": {8, 45},
				"8am":     {8, 0},
				"12pm":    {12, 0},
			} {
				parsed, ok := Parse(input)
				So(ok, ShouldBeTrue)
				So(parsed, ShouldResemble, expected)
			}
		})

		Convey("It should accept 24-hour times", func() {
			for input, expected := range map[string]Time{
				"8:45":  {8, 45},
				"16:45": {16, 45},
				"21.59": {21, 59},
				"00:00": {0, 0},
			} {
				parsed, ok := Parse(input)
				So(ok, ShouldBeTrue)
				So(parsed, ShouldResemble, expected)
			}
		})

		Convey("It should ignore case and extra whitespace", func() {
			parsed, ok := Parse("  6.40\t PM ")
			So(ok, ShouldBeTrue)
			So(parsed, ShouldResemble, Time{18, 40})
		})

		Convey("It should reject anything else", func() {
			for _, input := range []string{
				"21.60", "13:45 pm", "13:45am", "-4:45", "24:45", "0am", "8", "1600", "8:0 pm", "", "noon",
			} {
				_, ok := Parse(input)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestHours(t *testing.T) {
	Convey("Hour12To24", t, func() {
		So(Hour12To24(12, AM), ShouldEqual, 0)
		So(Hour12To24(1, AM), ShouldEqual, 1)
		So(Hour12To24(11, AM), ShouldEqual, 11)
		So(Hour12To24(12, PM), ShouldEqual, 12)
		So(Hour12To24(1, PM), ShouldEqual, 13)
		So(Hour12To24(11, PM), ShouldEqual, 23)
	})

	Convey("Hour24To12", t, func() {
		for hour, expected := range map[int]struct {
			hour int
			half Half
		}{
			0: {12, AM}, 1: {1, AM}, 11: {11, AM}, 12: {12, PM}, 13: {1, PM}, 23: {11, PM},
		} {
			h, half := Hour24To12(hour)
			So(h, ShouldEqual, expected.hour)
			So(half, ShouldEqual, expected.half)
		}
	})
}

func TestNext(t *testing.T) {
	Convey("Next", t, func() {
		now := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

		Convey("It should return a later time on the same day", func() {
			So(Time{16, 0}.Next(now), ShouldEqual, time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC))
		})

		Convey("It should roll over to the next day", func() {
			So(Time{8, 0}.Next(now), ShouldEqual, time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC))
			So(Time{14, 30}.Next(now), ShouldEqual, time.Date(2024, 3, 11, 14, 30, 0, 0, time.UTC))
		})

		Convey("It should format as a 24-hour time", func() {
			So(Time{6, 5}.String(), ShouldEqual, "06:05")
		})
	})
}
