// Package hours evaluates free-form weekly business-hours strings such as
// "月-金: 9:00-18:00, 土日: 10:00-17:00" or "Mon-Fri: 9:00-18:00".
package hours

import (
	"strconv"
	"strings"
	"time"
)

// Day numbers follow a Sunday-first week: 1=Sunday ... 7=Saturday.
var japaneseDays = [7]string{"日", "月", "火", "水", "木", "金", "土"}

var englishDays = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

var everyDayMarkers = []string{"毎日", "全日", "年中無休", "daily", "every day", "everyday"}

// IsOpen reports whether the schedule says the place is open at the given instant.
// The weekday and time of day are taken in at's location.
// An empty schedule is never open.
func IsOpen(schedule string, at time.Time) bool {
	if schedule == "" {
		return false
	}

	weekday := int(at.Weekday()) + 1
	now := at.Hour()*60 + at.Minute()

	for _, segment := range strings.Split(schedule, ",") {
		segment = strings.TrimSpace(segment)
		// Split on the first colon only; the time range keeps its own colons.
		dayPart, timePart, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		if !matchesWeekday(weekday, strings.TrimSpace(dayPart)) {
			continue
		}
		open, closing, ok := parseTimeRange(strings.TrimSpace(timePart))
		if !ok {
			continue
		}
		if now >= open && now < closing {
			return true
		}
	}
	return false
}

// FormatHours returns the schedule for display. It is currently the identity
// for non-empty input.
func FormatHours(schedule string) (string, bool) {
	if schedule == "" {
		return "", false
	}
	return schedule, true
}

func matchesWeekday(weekday int, dayPart string) bool {
	lower := strings.ToLower(dayPart)
	for _, marker := range everyDayMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	if strings.Contains(dayPart, "-") {
		parts := strings.Split(dayPart, "-")
		if len(parts) == 2 {
			start, okStart := weekdayNumber(parts[0])
			end, okEnd := weekdayNumber(parts[1])
			if okStart && okEnd {
				if start <= end {
					return weekday >= start && weekday <= end
				}
				// Wraps past the end of the week, e.g. 金-月.
				return weekday >= start || weekday <= end
			}
		}
	}

	if weekday < 1 || weekday > 7 {
		return false
	}
	if strings.Contains(dayPart, japaneseDays[weekday-1]) {
		return true
	}
	return strings.Contains(lower, englishDays[weekday-1][:3])
}

// weekdayNumber resolves a single day token to 1..7.
// English tokens may be any prefix of at least three letters of the day name.
func weekdayNumber(token string) (int, bool) {
	token = strings.TrimSpace(token)
	for i, d := range japaneseDays {
		if token == d {
			return i + 1, true
		}
	}
	lower := strings.ToLower(strings.TrimSuffix(token, "."))
	if len(lower) < 3 {
		return 0, false
	}
	for i, d := range englishDays {
		if strings.HasPrefix(d, lower) {
			return i + 1, true
		}
	}
	return 0, false
}

func parseTimeRange(s string) (open, closing int, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	open, ok = parseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	closing, ok = parseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return open, closing, true
}

// parseClock converts "H:MM" or "HH:MM" into minutes after midnight.
func parseClock(s string) (int, bool) {
	h, m, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 24 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	total := hour*60 + minute
	if total > 24*60 {
		return 0, false
	}
	return total, true
}
