// Package models defines the persisted representation of worklog sessions
package models

import (
	"fmt"
	"time"
)

// DocumentVersion is the version of the persisted document layout.
const DocumentVersion = 1

const (
	KindActive = "active"
	KindBreak  = "break"
	KindIdle   = "idle"
)

const (
	StateStopped = "stopped"
	StateActive  = "active"
	StateBreak   = "break"
)

// Period is a closed or open interval of time.
type Period struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	Kind      string        `json:"kind"`
	Duration  time.Duration `json:"duration"`
}

// Open reports whether the period has no end time yet.
func (p Period) Open() bool {
	return p.EndTime == nil
}

// Session is a work session with its active/break periods and the idle
// periods detected while it was active.
type Session struct {
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	ID          string     `json:"id"`
	Sphere      string     `json:"sphere"`
	State       string     `json:"state"`
	Periods     []Period   `json:"periods"`
	IdlePeriods []Period   `json:"idle_periods"`
}

// Settings is the free-form settings block stored with every document.
type Settings struct {
	IdleThresholdSeconds      int `json:"idle_threshold_seconds"`
	IdleBreakThresholdSeconds int `json:"idle_break_threshold_seconds"`
	BackupIntervalSeconds     int `json:"backup_interval_seconds"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		IdleThresholdSeconds:      60,
		IdleBreakThresholdSeconds: 300,
		BackupIntervalSeconds:     300,
	}
}

// State is the full document written to the primary store: the current
// session (if any) plus every completed session.
type State struct {
	SavedAt  time.Time `json:"saved_at"`
	Current  *Session  `json:"current,omitempty"`
	History  []Session `json:"history"`
	Settings Settings  `json:"settings"`
	Revision uint64    `json:"revision"`
	Version  int       `json:"version"`
}

// Validate checks the ordering invariants of every session in the document.
func (st *State) Validate() error {
	if st.Current != nil {
		if st.Current.EndTime != nil {
			return fmt.Errorf("current session %s is already closed", st.Current.ID)
		}

		if err := st.Current.Validate(); err != nil {
			return err
		}
	}

	for i := range st.History {
		s := &st.History[i]

		if s.EndTime == nil {
			return fmt.Errorf("archived session %s has no end time", s.ID)
		}

		if err := s.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks that periods are ordered, non-overlapping, have
// non-negative durations and that at most one of them is open.
func (s *Session) Validate() error {
	if err := validatePeriods(s.Periods, s.StartTime); err != nil {
		return fmt.Errorf("session %s: %w", s.ID, err)
	}

	if err := validatePeriods(s.IdlePeriods, s.StartTime); err != nil {
		return fmt.Errorf("session %s idle periods: %w", s.ID, err)
	}

	if s.EndTime != nil {
		for _, list := range [][]Period{s.Periods, s.IdlePeriods} {
			for _, p := range list {
				if p.Open() {
					return fmt.Errorf("session %s is closed but has an open period", s.ID)
				}

				if p.EndTime.After(*s.EndTime) {
					return fmt.Errorf("session %s has a period ending after the session", s.ID)
				}
			}
		}
	}

	return nil
}

func validatePeriods(periods []Period, notBefore time.Time) error {
	prevEnd := notBefore

	for i, p := range periods {
		if p.StartTime.Before(prevEnd) {
			return fmt.Errorf("period %d overlaps the previous one", i)
		}

		if p.Open() {
			if i != len(periods)-1 {
				return fmt.Errorf("period %d is open but is not the last", i)
			}

			continue
		}

		if p.EndTime.Before(p.StartTime) {
			return fmt.Errorf("period %d has a negative duration", i)
		}

		prevEnd = *p.EndTime
	}

	return nil
}
