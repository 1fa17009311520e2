package session

import (
	"slices"
	"time"
)

// Kind tags a period.
type Kind string

const (
	KindActive Kind = "active"
	KindBreak  Kind = "break"
	KindIdle   Kind = "idle"
)

// Period is an interval of time. EndTime is zero while the period is open.
type Period struct {
	StartTime time.Time
	EndTime   time.Time
	Kind      Kind
}

// Open reports whether the period is still running.
func (p Period) Open() bool {
	return p.EndTime.IsZero()
}

// Duration is zero for an open period.
func (p Period) Duration() time.Duration {
	if p.Open() {
		return 0
	}

	return p.EndTime.Sub(p.StartTime)
}

// DurationAt counts an open period up to now.
func (p Period) DurationAt(now time.Time) time.Duration {
	if !p.Open() {
		return p.Duration()
	}

	if now.Before(p.StartTime) {
		return 0
	}

	return now.Sub(p.StartTime)
}

// Recorder owns an ordered list of periods in which at most one period is
// open and no two periods overlap. Closed periods are never modified.
type Recorder struct {
	periods []Period
}

// Current returns the open period, if any.
func (r *Recorder) Current() (Period, bool) {
	n := len(r.periods)
	if n == 0 || !r.periods[n-1].Open() {
		return Period{}, false
	}

	return r.periods[n-1], true
}

// Open starts a new period of the given kind.
func (r *Recorder) Open(kind Kind, start time.Time) error {
	if cur, ok := r.Current(); ok {
		return ErrPeriodAlreadyOpen.Fmt(cur.Kind)
	}

	if n := len(r.periods); n > 0 && start.Before(r.periods[n-1].EndTime) {
		return ErrPeriodOverlap.Fmt(start.Format(time.RFC3339))
	}

	r.periods = append(r.periods, Period{Kind: kind, StartTime: start})

	return nil
}

// CheckClose reports whether the open period could be closed at end.
func (r *Recorder) CheckClose(end time.Time) error {
	cur, ok := r.Current()
	if !ok {
		return ErrNoOpenPeriod
	}

	if end.Before(cur.StartTime) {
		return ErrNegativeDuration.Fmt(
			end.Format(time.RFC3339Nano),
			cur.StartTime.Format(time.RFC3339Nano),
		)
	}

	return nil
}

// Close ends the open period at end and returns it.
func (r *Recorder) Close(end time.Time) (Period, error) {
	if err := r.CheckClose(end); err != nil {
		return Period{}, err
	}

	last := len(r.periods) - 1
	r.periods[last].EndTime = end

	return r.periods[last], nil
}

// Periods returns a copy of the recorded periods in order.
func (r *Recorder) Periods() []Period {
	return slices.Clone(r.periods)
}

// Len returns the number of recorded periods.
func (r *Recorder) Len() int {
	return len(r.periods)
}

// Total sums the durations of periods of the given kind, counting an open
// period up to now.
func (r *Recorder) Total(kind Kind, now time.Time) time.Duration {
	var total time.Duration

	for _, p := range r.periods {
		if p.Kind == kind {
			total += p.DurationAt(now)
		}
	}

	return total
}
