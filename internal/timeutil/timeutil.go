// Package timeutil provides utility functions for working with time values.
package timeutil

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

const (
	secondsInAMinute = 60
	secondsInAnHour  = 3600
)

// Round rounds a time value in seconds, minutes, or hours to the nearest integer.
func Round(t float64) int {
	return int(math.Round(t))
}

// FormatDuration expresses a duration as hours, minutes and seconds, e.g.
// 1h05m09s. Negative durations are shown as zero.
func FormatDuration(d time.Duration) string {
	total := Round(d.Seconds())
	if total < 0 {
		total = 0
	}

	hrs := total / secondsInAnHour
	mins := (total % secondsInAnHour) / secondsInAMinute
	secs := total % secondsInAMinute

	return fmt.Sprintf("%dh%02dm%02ds", hrs, mins, secs)
}

// FormatClock formats the time of day using a 24 or 12 hour clock.
func FormatClock(t time.Time, twentyFourHour bool) string {
	if twentyFourHour {
		return t.Format("15:04:05")
	}

	return t.Format("03:04:05 PM")
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// FromStr parses absolute dates ("2026-10-01 09:00") and relative
// expressions ("2 days ago", "yesterday").
func FromStr(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	cfg := &dateparser.Configuration{
		CurrentTime: time.Now(),
	}

	dt, err := dateparser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse %q: %w", s, err)
	}

	return dt.Time, nil
}

// KeyFormat is a fixed width timestamp layout, so keys sort chronologically.
const KeyFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ToKey converts a time value to a database key for Bolt.
func ToKey(t time.Time) []byte {
	return []byte(t.UTC().Format(KeyFormat))
}
