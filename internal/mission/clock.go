package mission

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrBadTime = errors.New("bad mission time")

const day = 24 * time.Hour

var namedTimes = map[string]time.Duration{
	"midnight": 0,
	"dawn":     6 * time.Hour,
	"noon":     12 * time.Hour,
	"dusk":     18 * time.Hour,
}

// ParseTime parses "HHMMZ" (Zulu) or one of dawn, dusk, noon, midnight into
// an offset from midnight.
func ParseTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, ok := namedTimes[strings.ToLower(s)]; ok {
		return d, nil
	}
	if len(s) != 5 || (s[4] != 'Z' && s[4] != 'z') {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	hh, err1 := strconv.Atoi(s[:2])
	mm, err2 := strconv.Atoi(s[2:4])
	if err1 != nil || err2 != nil || hh > 23 || mm > 59 || hh < 0 || mm < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}

// FormatTime renders an offset from midnight as "HHMMZ", wrapping at 24h.
func FormatTime(d time.Duration) string {
	d %= day
	if d < 0 {
		d += day
	}
	return fmt.Sprintf("%02d%02dZ", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// Clock is the mission's time of day. Elapsed accumulates tick durations,
// so changing the tick speed mid-mission never rewrites earlier stamps.
type Clock struct {
	Start   time.Duration // offset from midnight
	Elapsed time.Duration
}

// Advance moves the clock forward by one tick of length d.
func (c *Clock) Advance(d time.Duration) {
	if d > 0 {
		c.Elapsed += d
	}
}

// Now returns the current time of day.
func (c Clock) Now() time.Duration {
	return (c.Start + c.Elapsed) % day
}

// Stamp is Now formatted as "HHMMZ".
func (c Clock) Stamp() string {
	return FormatTime(c.Now())
}

// Passed reports whether deadline has gone by. Deadlines are compared
// within the same day.
func (c Clock) Passed(deadline string) (bool, error) {
	d, err := ParseTime(deadline)
	if err != nil {
		return false, err
	}
	return c.Now() > d, nil
}
