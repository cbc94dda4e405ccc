package hours

import (
	"testing"
	"time"
)

// at builds a local time in the first week of 2024 (Jan 1 is a Monday).
func at(weekday time.Weekday, hour, minute int) time.Time {
	day := 1 + (int(weekday)+6)%7 // Monday -> 1, Sunday -> 7
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestIsOpen_WeekdayRange(t *testing.T) {
	const schedule = "Mon-Fri: 9:00-18:00"

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"Monday 10:00", at(time.Monday, 10, 0), true},
		{"Monday 09:00 (opening)", at(time.Monday, 9, 0), true},
		{"Monday 18:00 (closing)", at(time.Monday, 18, 0), false},
		{"Monday 17:59", at(time.Monday, 17, 59), true},
		{"Monday 08:59", at(time.Monday, 8, 59), false},
		{"Friday 12:00", at(time.Friday, 12, 0), true},
		{"Saturday 12:00", at(time.Saturday, 12, 0), false},
		{"Sunday 12:00", at(time.Sunday, 12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpen(schedule, tt.at); got != tt.want {
				t.Errorf("IsOpen(%q, %v) = %v, want %v", schedule, tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpen_SaturdayNeverOpenOnWeekdaySchedule(t *testing.T) {
	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 30, 59} {
			if IsOpen("Mon-Fri: 9:00-18:00", at(time.Saturday, h, m)) {
				t.Fatalf("open on Saturday %02d:%02d", h, m)
			}
		}
	}
}

func TestIsOpen_WrapAroundDayRange(t *testing.T) {
	tests := []struct {
		schedule string
		day      time.Weekday
		want     bool
	}{
		{"Fri-Mon: 10:00-20:00", time.Friday, true},
		{"Fri-Mon: 10:00-20:00", time.Saturday, true},
		{"Fri-Mon: 10:00-20:00", time.Sunday, true},
		{"Fri-Mon: 10:00-20:00", time.Monday, true},
		{"Fri-Mon: 10:00-20:00", time.Tuesday, false},
		{"Fri-Mon: 10:00-20:00", time.Wednesday, false},
		{"Fri-Mon: 10:00-20:00", time.Thursday, false},
		{"金-月: 10:00-20:00", time.Sunday, true},
		{"金-月: 10:00-20:00", time.Wednesday, false},
	}

	for _, tt := range tests {
		t.Run(tt.schedule+"/"+tt.day.String(), func(t *testing.T) {
			if got := IsOpen(tt.schedule, at(tt.day, 12, 0)); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOpen_JapaneseSchedule(t *testing.T) {
	const schedule = "月-金: 9:00-18:00, 土日: 10:00-17:00"

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday within hours", at(time.Monday, 11, 0), true},
		{"weekday before hours", at(time.Monday, 8, 0), false},
		{"weekday after hours", at(time.Monday, 19, 0), false},
		{"saturday morning", at(time.Saturday, 10, 30), true},
		{"saturday before weekend opening", at(time.Saturday, 9, 30), false},
		{"sunday closing", at(time.Sunday, 17, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpen(schedule, tt.at); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOpen_EveryDayMarkers(t *testing.T) {
	for _, schedule := range []string{"毎日: 7:00-22:00", "全日: 7:00-22:00", "年中無休: 7:00-22:00", "Daily: 7:00-22:00"} {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if !IsOpen(schedule, at(d, 7, 0)) {
				t.Errorf("%q should be open on %v at 07:00", schedule, d)
			}
			if IsOpen(schedule, at(d, 22, 0)) {
				t.Errorf("%q should be closed on %v at 22:00", schedule, d)
			}
		}
	}
}

func TestIsOpen_OverlappingSegmentsOnlyOneMatchesDay(t *testing.T) {
	const schedule = "Sat: 8:00-9:00, Mon: 10:00-11:00, Sat Sun: 12:00-13:00"

	if !IsOpen(schedule, at(time.Monday, 10, 30)) {
		t.Error("Monday segment should match")
	}
	if IsOpen(schedule, at(time.Monday, 8, 30)) {
		t.Error("Saturday segment must not apply on Monday")
	}
	if !IsOpen(schedule, at(time.Sunday, 12, 0)) {
		t.Error("Sunday listed in a day set should match")
	}
}

func TestIsOpen_MalformedSegmentsMixedWithValid(t *testing.T) {
	const schedule = "garbage, Mon: 25:00-26:00, Mon: 9-18, Tue: 9:00, Mon: 9:00-18:00"

	if !IsOpen(schedule, at(time.Monday, 12, 0)) {
		t.Error("valid segment should still evaluate")
	}
	if IsOpen(schedule, at(time.Tuesday, 12, 0)) {
		t.Error("malformed Tuesday segment must not match")
	}
}

func TestIsOpen_EmptyAndGarbled(t *testing.T) {
	now := at(time.Wednesday, 12, 0)
	for _, schedule := range []string{"", "garbled text with no colon", "Mon-Fri 9-18", ":", "Mon:"} {
		if IsOpen(schedule, now) {
			t.Errorf("IsOpen(%q) = true, want false", schedule)
		}
	}
}

func TestIsOpen_UsesInstantLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2024-01-01 01:00 UTC is 10:00 Monday in Tokyo.
	instant := time.Date(2024, time.January, 1, 1, 0, 0, 0, time.UTC).In(tokyo)
	if !IsOpen("Mon: 9:00-18:00", instant) {
		t.Error("expected evaluation in the instant's own location")
	}
}

func TestFormatHours(t *testing.T) {
	if _, ok := FormatHours(""); ok {
		t.Error("empty schedule should format to nothing")
	}
	s, ok := FormatHours("月-金: 9:00-18:00")
	if !ok || s != "月-金: 9:00-18:00" {
		t.Errorf("FormatHours changed its input: %q", s)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"9:00", 540, true},
		{"09:05", 545, true},
		{"24:00", 1440, true},
		{"24:01", 0, false},
		{"9:5", 0, false},
		{"123:00", 0, false},
		{"12:60", 0, false},
		{"noon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseClock(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseClock(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
