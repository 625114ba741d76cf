package notify

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned for times that are not HH:MM.
var ErrInvalidClock = errors.New("time of day must be HH:MM")

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, ErrInvalidClock
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, ErrInvalidClock
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, ErrInvalidClock
	}
	return hh*60 + mm, nil
}

// QuietWindow reports whether now falls into the [start, end) window given as
// local HH:MM strings, and when the window ends. The window is read in now's
// location. When end <= start the window wraps midnight: at or after start
// the end moves to the next day, otherwise start moves back a day.
//
// An empty or invalid bound, or start == end, disables quiet hours.
func QuietWindow(now time.Time, start, end string) (bool, time.Time) {
	if start == "" || end == "" {
		return false, time.Time{}
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return false, time.Time{}
	}
	endMin, err := ParseClock(end)
	if err != nil || startMin == endMin {
		return false, time.Time{}
	}

	y, mo, d := now.Date()
	loc := now.Location()
	startAt := time.Date(y, mo, d, startMin/60, startMin%60, 0, 0, loc)
	endAt := time.Date(y, mo, d, endMin/60, endMin%60, 0, 0, loc)

	if endMin <= startMin {
		if !now.Before(startAt) {
			endAt = time.Date(y, mo, d+1, endMin/60, endMin%60, 0, 0, loc)
		} else {
			startAt = time.Date(y, mo, d-1, startMin/60, startMin%60, 0, 0, loc)
		}
	}

	if !now.Before(startAt) && now.Before(endAt) {
		return true, endAt
	}
	return false, time.Time{}
}
