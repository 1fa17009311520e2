package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/ayoisaiah/worklog/internal/models"
	"github.com/ayoisaiah/worklog/internal/timeutil"
)

const reportTimeFormat = "2006-01-02 15:04:05"

// Summary aggregates the totals of a session for display.
type Summary struct {
	StartTime   time.Time
	EndTime     time.Time
	SessionID   string
	Sphere      string
	Active      time.Duration
	Break       time.Duration
	Idle        time.Duration
	Periods     int
	IdlePeriods int
}

// Summarize computes the totals of a persisted session. Open periods are
// counted up to now.
func Summarize(m models.Session, now time.Time) (Summary, error) {
	s, err := FromModel(m)
	if err != nil {
		return Summary{}, err
	}

	return s.summary(now), nil
}

// Focused is the active time that was not spent idle.
func (s Summary) Focused() time.Duration {
	if s.Idle > s.Active {
		return 0
	}

	return s.Active - s.Idle
}

// Report renders the summary as plain text.
func (s Summary) Report() string {
	var b strings.Builder

	row := func(label, value string) {
		fmt.Fprintf(&b, "%-9s %s\n", label+":", value)
	}

	row("Session", s.SessionID)
	row("Sphere", s.Sphere)
	row("Started", s.StartTime.Format(reportTimeFormat))

	if !s.EndTime.IsZero() {
		row("Ended", s.EndTime.Format(reportTimeFormat))
	}

	row("Active", timeutil.FormatDuration(s.Active))
	row("Break", timeutil.FormatDuration(s.Break))
	row("Idle", timeutil.FormatDuration(s.Idle))
	row("Focused", timeutil.FormatDuration(s.Focused()))
	row("Periods", fmt.Sprintf("%d (%d idle)", s.Periods, s.IdlePeriods))

	return b.String()
}
