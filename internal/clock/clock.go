// Package clock provides the theater clock. Every comparison against "now"
// and every day boundary in the service goes through a Clock so that the
// theater's local offset is applied in exactly one place.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateLayout is the layout accepted for date-only query parameters.
const DateLayout = "2006-01-02"

// localLayouts are tried, in order, for timestamps that carry no offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Clock reports the current instant in the theater's zone.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Theater is a Clock backed by the system time and a fixed UTC offset.
type Theater struct {
	loc *time.Location
}

// NewTheater builds a theater clock for the given UTC offset.
func NewTheater(offset time.Duration) *Theater {
	return &Theater{loc: zone(offset)}
}

func (t *Theater) Now() time.Time { return time.Now().In(t.loc) }

func (t *Theater) Location() *time.Location { return t.loc }

// Fixed is a Clock frozen at a settable instant. It is safe for concurrent use.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
	loc *time.Location
}

// NewFixed returns a clock stuck at now, reporting times in the zone for offset.
func NewFixed(now time.Time, offset time.Duration) *Fixed {
	loc := zone(offset)
	return &Fixed{now: now.In(loc), loc: loc}
}

func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

func (f *Fixed) Location() *time.Location { return f.loc }

// Set moves the clock to now.
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now.In(f.loc)
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(c Clock, t time.Time) time.Time {
	l := t.In(c.Location())
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.Location())
}

// NextDay returns the local midnight following t.
func NextDay(c Clock, t time.Time) time.Time {
	return StartOfDay(c, t).AddDate(0, 0, 1)
}

// Today returns the [start, end) bounds of the current local day.
func Today(c Clock) (time.Time, time.Time) {
	now := c.Now()
	return StartOfDay(c, now), NextDay(c, now)
}

// ParseDate reads a YYYY-MM-DD date as local midnight.
func ParseDate(c Clock, s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), c.Location())
}

// ParseTime reads an RFC3339 timestamp. Timestamps without an offset are
// taken to be theater-local.
func ParseTime(c Clock, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(c.Location()), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, c.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseOffset accepts "+07:00", "-0530", "7" (hours) or a Go duration such
// as "7h".
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty offset")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	sign := time.Duration(1)
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}
	if len(s) <= 2 {
		h, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		return sign * time.Duration(h) * time.Hour, nil
	}
	s = strings.ReplaceAll(s, ":", "")
	if len(s) != 4 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	hh, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid offset hours %q", s)
	}
	mm, err := strconv.Atoi(s[2:])
	if err != nil || mm >= 60 {
		return 0, fmt.Errorf("invalid offset minutes %q", s)
	}
	return sign * (time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute), nil
}

func zone(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := "+"
	abs := secs
	if secs < 0 {
		sign = "-"
		abs = -secs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}
