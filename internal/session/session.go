// Package session implements the work session state machine: a session is an
// ordered list of active and break periods plus an orthogonal list of idle
// periods, mutated only through Machine.
package session

import (
	"slices"
	"time"

	"github.com/ayoisaiah/worklog/internal/models"
)

// State is the top-level state of the session tracker.
type State string

const (
	Stopped State = "stopped"
	Active  State = "active"
	Break   State = "break"
)

// Session is the session currently accepting transitions.
type Session struct {
	StartTime time.Time
	EndTime   time.Time
	ID        string
	Sphere    string
	periods   Recorder
	idle      Recorder
}

func newSession(id, sphere string, start time.Time) *Session {
	return &Session{
		ID:        id,
		Sphere:    sphere,
		StartTime: start,
	}
}

// State is derived from the kind of the open tracked period.
func (s *Session) State() State {
	cur, ok := s.periods.Current()
	if !ok {
		return Stopped
	}

	if cur.Kind == KindBreak {
		return Break
	}

	return Active
}

// Idle reports whether an idle period is open.
func (s *Session) Idle() bool {
	_, ok := s.idle.Current()
	return ok
}

// Periods returns the active and break periods in order.
func (s *Session) Periods() []Period {
	return s.periods.Periods()
}

// IdlePeriods returns the idle periods in order.
func (s *Session) IdlePeriods() []Period {
	return s.idle.Periods()
}

func (s *Session) summary(now time.Time) Summary {
	return Summary{
		SessionID:   s.ID,
		Sphere:      s.Sphere,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		Active:      s.periods.Total(KindActive, now),
		Break:       s.periods.Total(KindBreak, now),
		Idle:        s.idle.Total(KindIdle, now),
		Periods:     s.periods.Len(),
		IdlePeriods: s.idle.Len(),
	}
}

// ToModel converts the session to its persisted representation.
func (s *Session) ToModel() models.Session {
	m := models.Session{
		ID:          s.ID,
		Sphere:      s.Sphere,
		StartTime:   s.StartTime,
		State:       string(s.State()),
		Periods:     toModelPeriods(s.periods.periods),
		IdlePeriods: toModelPeriods(s.idle.periods),
	}

	if !s.EndTime.IsZero() {
		end := s.EndTime
		m.EndTime = &end
	}

	return m
}

func toModelPeriods(periods []Period) []models.Period {
	out := make([]models.Period, 0, len(periods))

	for _, p := range periods {
		mp := models.Period{
			Kind:      string(p.Kind),
			StartTime: p.StartTime,
			Duration:  p.Duration(),
		}

		if !p.Open() {
			end := p.EndTime
			mp.EndTime = &end
		}

		out = append(out, mp)
	}

	return out
}

// FromModel rebuilds a session from its persisted representation by replaying
// every period through a Recorder, so a document that breaks the ordering
// invariants is rejected.
func FromModel(m models.Session) (*Session, error) {
	s := newSession(m.ID, m.Sphere, m.StartTime)

	if m.EndTime != nil {
		s.EndTime = *m.EndTime
	}

	err := replay(&s.periods, m.Periods, m.StartTime, KindActive, KindBreak)
	if err != nil {
		return nil, errInvalidDocument.Wrap(err)
	}

	err = replay(&s.idle, m.IdlePeriods, m.StartTime, KindIdle)
	if err != nil {
		return nil, errInvalidDocument.Wrap(err)
	}

	if _, idleOpen := s.idle.Current(); idleOpen && s.State() != Active {
		return nil, errInvalidDocument.Wrap(
			ErrInvalidStateTransition.Fmt("stay idle", s.State()),
		)
	}

	return s, nil
}

func replay(
	r *Recorder,
	periods []models.Period,
	notBefore time.Time,
	kinds ...Kind,
) error {
	for _, p := range periods {
		kind := Kind(p.Kind)

		if !slices.Contains(kinds, kind) {
			return errUnknownKind.Fmt(p.Kind)
		}

		if p.StartTime.Before(notBefore) {
			return ErrPeriodOverlap.Fmt(p.StartTime.Format(time.RFC3339))
		}

		if err := r.Open(kind, p.StartTime); err != nil {
			return err
		}

		if p.EndTime != nil {
			if _, err := r.Close(*p.EndTime); err != nil {
				return err
			}
		}
	}

	return nil
}
