package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayoisaiah/worklog/internal/clock"
	"github.com/ayoisaiah/worklog/internal/models"
)

// Saver persists a snapshot of the session state.
type Saver interface {
	SaveNow(ctx context.Context, st models.State) error
}

// EventType defines the type of Machine event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventIdleStart  EventType = "idle_start"
	EventIdleEnd    EventType = "idle_end"
)

// Cause identifies what triggered an event.
type Cause string

const (
	CauseManual   Cause = "manual"
	CauseIdle     Cause = "idle"
	CauseRecovery Cause = "recovery"
)

// Event is published to subscribers after every accepted command.
type Event struct {
	At        time.Time
	Type      EventType
	From      State
	To        State
	Cause     Cause
	SessionID string
	Saved     bool
}

// Status is a point-in-time view of the machine for display.
type Status struct {
	Now          time.Time
	SessionStart time.Time
	PeriodStart  time.Time
	IdleSince    time.Time
	LastSaveErr  error
	State        State
	SessionID    string
	Sphere       string
	Active       time.Duration
	Break        time.Duration
	Idle         time.Duration
	Idling       bool
	Unsaved      bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithSaver sets the store every accepted command is saved to.
func WithSaver(s Saver) Option {
	return func(m *Machine) {
		m.saver = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithIDGenerator overrides how session ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		m.newID = fn
	}
}

// Machine is the only component allowed to open and close periods. All
// commands are serialized by a single mutex; persistence happens after the
// mutex is released using the snapshot taken while it was held.
type Machine struct {
	mu            sync.Mutex
	clock         clock.Clock
	saver         Saver
	logger        *slog.Logger
	newID         func() string
	current       *Session
	lastSaveErr   error
	history       []models.Session
	events        []chan Event
	revision      uint64
	savedRevision uint64
}

// New creates a stopped Machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		clock:  clock.Real{},
		logger: slog.Default(),
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Subscribe registers a new observer channel. Events are dropped for
// observers that are not keeping up.
func (m *Machine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}

	ch := make(chan Event, buffer)

	m.mu.Lock()
	m.events = append(m.events, ch)
	m.mu.Unlock()

	return ch
}

// Close closes every observer channel.
func (m *Machine) Close() {
	m.mu.Lock()
	events := m.events
	m.events = nil
	m.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// StartSession opens a new session with an active period.
func (m *Machine) StartSession(sphere string) (string, error) {
	m.mu.Lock()

	if m.current != nil {
		state := m.current.State()
		m.mu.Unlock()

		return "", ErrInvalidStateTransition.Fmt("start a session", state)
	}

	now := m.clock.Now()
	sess := newSession(m.newID(), sphere, now)

	// an empty recorder always accepts its first period
	_ = sess.periods.Open(KindActive, now)

	m.current = sess

	st, ev := m.commitLocked(Event{
		Type:  EventTransition,
		From:  Stopped,
		To:    Active,
		Cause: CauseManual,
		At:    now,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return sess.ID, nil
}

// StartBreak closes the active period and opens a break.
func (m *Machine) StartBreak() error {
	return m.switchTo(Active, KindBreak, "start a break")
}

// EndBreak closes the break and opens a new active period.
func (m *Machine) EndBreak() error {
	return m.switchTo(Break, KindActive, "end a break")
}

func (m *Machine) switchTo(from State, kind Kind, action string) error {
	m.mu.Lock()

	state := m.stateLocked()
	if state != from {
		m.mu.Unlock()
		return ErrInvalidStateTransition.Fmt(action, state)
	}

	now := m.clock.Now()

	if err := m.switchLocked(kind, now); err != nil {
		m.mu.Unlock()
		m.logger.Error("transition rejected", "action", action, "error", err)

		return err
	}

	st, ev := m.commitLocked(Event{
		Type:  EventTransition,
		From:  from,
		To:    stateOf(kind),
		Cause: CauseManual,
		At:    now,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return nil
}

// EndSession closes the open period and archives the session.
func (m *Machine) EndSession() (Summary, error) {
	m.mu.Lock()

	state := m.stateLocked()
	if state == Stopped {
		m.mu.Unlock()
		return Summary{}, ErrInvalidStateTransition.Fmt("end the session", state)
	}

	now := m.clock.Now()

	summary, err := m.closeLocked(now)
	if err != nil {
		m.mu.Unlock()
		m.logger.Error("transition rejected", "action", "end the session", "error", err)

		return Summary{}, err
	}

	st, ev := m.commitLocked(Event{
		Type:      EventTransition,
		From:      state,
		To:        Stopped,
		Cause:     CauseManual,
		At:        now,
		SessionID: summary.SessionID,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return summary, nil
}

// BeginIdle opens an idle period starting at the last recorded input.
func (m *Machine) BeginIdle(start time.Time) error {
	m.mu.Lock()

	state := m.stateLocked()
	if state != Active {
		m.mu.Unlock()
		return ErrInvalidStateTransition.Fmt("begin idling", state)
	}

	now := m.clock.Now()
	if start.After(now) {
		start = now
	}

	cur, _ := m.current.periods.Current()
	if start.Before(cur.StartTime) {
		m.mu.Unlock()
		return ErrPeriodOverlap.Fmt(start.Format(time.RFC3339))
	}

	if err := m.current.idle.Open(KindIdle, start); err != nil {
		m.mu.Unlock()
		return err
	}

	st, ev := m.commitLocked(Event{
		Type:  EventIdleStart,
		From:  Active,
		To:    Active,
		Cause: CauseIdle,
		At:    start,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return nil
}

// EndIdle closes the open idle period when input resumes.
func (m *Machine) EndIdle(end time.Time) error {
	m.mu.Lock()

	state := m.stateLocked()
	if state != Active {
		m.mu.Unlock()
		return ErrInvalidStateTransition.Fmt("end idling", state)
	}

	if _, err := m.current.idle.Close(end); err != nil {
		m.mu.Unlock()
		return err
	}

	st, ev := m.commitLocked(Event{
		Type:  EventIdleEnd,
		From:  Active,
		To:    Active,
		Cause: CauseIdle,
		At:    end,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return nil
}

// AutoStartBreak escalates an open idle period into a break starting at the
// idle-break boundary.
func (m *Machine) AutoStartBreak(at time.Time) error {
	m.mu.Lock()

	state := m.stateLocked()
	if state != Active {
		m.mu.Unlock()
		return ErrInvalidStateTransition.Fmt("start a break", state)
	}

	if !m.current.Idle() {
		m.mu.Unlock()
		return ErrNoOpenPeriod
	}

	if err := m.switchLocked(KindBreak, at); err != nil {
		m.mu.Unlock()
		return err
	}

	st, ev := m.commitLocked(Event{
		Type:  EventTransition,
		From:  Active,
		To:    Break,
		Cause: CauseIdle,
		At:    at,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return nil
}

// Restore loads a persisted document into a stopped machine. A session that
// was open when the document was saved becomes the current session again.
func (m *Machine) Restore(st models.State) error {
	if err := st.Validate(); err != nil {
		return errInvalidDocument.Wrap(err)
	}

	var current *Session

	if st.Current != nil {
		var err error

		current, err = FromModel(*st.Current)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return errRestoreInProgress
	}

	m.current = current
	m.history = slices.Clone(st.History)
	m.revision = st.Revision
	m.savedRevision = st.Revision

	return nil
}

// CloseInterrupted ends a session recovered from an unclean shutdown at end,
// typically the time of the last successful save.
func (m *Machine) CloseInterrupted(end time.Time) (Summary, error) {
	m.mu.Lock()

	state := m.stateLocked()
	if state == Stopped {
		m.mu.Unlock()
		return Summary{}, ErrInvalidStateTransition.Fmt("close an interrupted session", state)
	}

	// no period may end before it started
	if cur, ok := m.current.periods.Current(); ok && end.Before(cur.StartTime) {
		end = cur.StartTime
	}

	if cur, ok := m.current.idle.Current(); ok && end.Before(cur.StartTime) {
		end = cur.StartTime
	}

	summary, err := m.closeLocked(end)
	if err != nil {
		m.mu.Unlock()
		return Summary{}, err
	}

	st, ev := m.commitLocked(Event{
		Type:      EventTransition,
		From:      state,
		To:        Stopped,
		Cause:     CauseRecovery,
		At:        end,
		SessionID: summary.SessionID,
	})
	m.mu.Unlock()

	m.publish(st, ev)

	return summary, nil
}

// State returns the current top-level state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stateLocked()
}

// Snapshot returns a copy of the full session state.
func (m *Machine) Snapshot() models.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

// Status returns the current state with running totals.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()

	s := Status{
		Now:         now,
		State:       m.stateLocked(),
		Unsaved:     m.savedRevision < m.revision,
		LastSaveErr: m.lastSaveErr,
	}

	if m.current == nil {
		return s
	}

	sum := m.current.summary(now)

	s.SessionID = m.current.ID
	s.Sphere = m.current.Sphere
	s.SessionStart = m.current.StartTime
	s.Active = sum.Active
	s.Break = sum.Break
	s.Idle = sum.Idle

	if cur, ok := m.current.periods.Current(); ok {
		s.PeriodStart = cur.StartTime
	}

	if cur, ok := m.current.idle.Current(); ok {
		s.Idling = true
		s.IdleSince = cur.StartTime
	}

	return s
}

// History returns the completed sessions in the order they ended.
func (m *Machine) History() []models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.history)
}

func (m *Machine) stateLocked() State {
	if m.current == nil {
		return Stopped
	}

	return m.current.State()
}

// switchLocked closes the open idle and tracked periods at `at` and opens a
// new tracked period of the given kind. Nothing is modified if any step would
// break an invariant.
func (m *Machine) switchLocked(kind Kind, at time.Time) error {
	idling := m.current.Idle()

	if idling {
		if err := m.current.idle.CheckClose(at); err != nil {
			return err
		}
	}

	if err := m.current.periods.CheckClose(at); err != nil {
		return err
	}

	if idling {
		_, _ = m.current.idle.Close(at)
	}

	_, _ = m.current.periods.Close(at)

	return m.current.periods.Open(kind, at)
}

func (m *Machine) closeLocked(end time.Time) (Summary, error) {
	sess := m.current
	idling := sess.Idle()

	if idling {
		if err := sess.idle.CheckClose(end); err != nil {
			return Summary{}, err
		}
	}

	if err := sess.periods.CheckClose(end); err != nil {
		return Summary{}, err
	}

	if idling {
		_, _ = sess.idle.Close(end)
	}

	_, _ = sess.periods.Close(end)

	sess.EndTime = end

	m.history = append(m.history, sess.ToModel())
	m.current = nil

	return sess.summary(end), nil
}

func (m *Machine) commitLocked(ev Event) (models.State, Event) {
	m.revision++

	if m.current != nil {
		ev.SessionID = m.current.ID
	}

	return m.snapshotLocked(), ev
}

func (m *Machine) snapshotLocked() models.State {
	st := models.State{
		Version:  models.DocumentVersion,
		Revision: m.revision,
		History:  slices.Clone(m.history),
	}

	if m.current != nil {
		cur := m.current.ToModel()
		st.Current = &cur
	}

	if st.History == nil {
		st.History = []models.Session{}
	}

	return st
}

// publish saves the snapshot and notifies observers. A failed save leaves the
// machine running in memory with the change marked as unsaved.
func (m *Machine) publish(st models.State, ev Event) {
	var err error

	if m.saver != nil {
		err = m.saver.SaveNow(context.Background(), st)
	}

	m.mu.Lock()

	if err == nil {
		if st.Revision > m.savedRevision {
			m.savedRevision = st.Revision
		}

		m.lastSaveErr = nil
	} else {
		m.lastSaveErr = err
	}

	ev.Saved = err == nil

	for _, ch := range m.events {
		select {
		case ch <- ev:
		default:
		}
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn(
			"changes not yet saved",
			"revision", st.Revision,
			"error", err,
		)
	}

	m.logger.Debug(
		"session event",
		"type", ev.Type,
		"from", ev.From,
		"to", ev.To,
		"cause", ev.Cause,
		"session", ev.SessionID,
	)
}

func stateOf(kind Kind) State {
	if kind == KindBreak {
		return Break
	}

	return Active
}
