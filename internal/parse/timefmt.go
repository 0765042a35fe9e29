package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ClockLayout is how end times are displayed on the countdown surface.
const ClockLayout = "15:04"

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// EndTime turns the end time of a reservation into an instant.
//
// A bare clock time such as "16:30" is taken as that time today in loc, the
// way the reservation screens present it. Full timestamps in RFC3339 or the
// "2006-01-02 15:04:05" layout are accepted as well.
func EndTime(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty end time")
	}
	if loc == nil {
		loc = now.Location()
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		second := 0
		if m[3] != "" {
			second, _ = strconv.Atoi(m[3])
		}
		if hour > 23 || minute > 59 || second > 59 {
			return time.Time{}, fmt.Errorf("clock time out of range: %q", raw)
		}
		today := now.In(loc)
		return time.Date(today.Year(), today.Month(), today.Day(), hour, minute, second, 0, loc), nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unable to parse end time: %q", raw)
}

// Clock formats an instant for the countdown display.
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}

// Minutes rounds a duration up to whole minutes. Negative durations are 0.
func Minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// Remaining renders the time left on a reservation, e.g. "1h 30m" or "45m".
func Remaining(d time.Duration) string {
	total := Minutes(d)
	hours, minutes := total/60, total%60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
