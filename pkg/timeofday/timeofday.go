// Package timeofday provides the wall-clock wire types used by the booking
// API: a timezone-free time of day serialized as "HH:MM" and a calendar date
// serialized as "YYYY-MM-DD".
package timeofday

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the wire format for a time of day.
const Layout = "15:04"

// DateLayout is the wire format for a calendar date.
const DateLayout = "2006-01-02"

// TimeOfDay is a time of day with minute precision, stored as minutes since
// midnight. The zero value is midnight.
type TimeOfDay int

// New builds a TimeOfDay from an hour and minute.
func New(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Parse parses "HH:MM" (and tolerates the "HH:MM:SS" form Postgres returns
// for time columns).
func Parse(s string) (TimeOfDay, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, fmt.Errorf("parse time of day %q: %w", s, err)
		}
	}
	return New(t.Hour(), t.Minute()), nil
}

// FromTime extracts the time of day from a time.Time, discarding seconds.
func FromTime(t time.Time) TimeOfDay {
	return New(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add advances the time of day by d, truncated to whole minutes. The result
// is not wrapped at midnight; callers compare against an upper bound.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }

// At anchors the time of day on a calendar date in the given location.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDate parses "YYYY-MM-DD" into a UTC midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
