// Package idle detects periods without user input during an active session
// and escalates long ones into breaks.
package idle

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayoisaiah/worklog/internal/clock"
	"github.com/ayoisaiah/worklog/internal/session"
)

// Commander is the subset of session.Machine the monitor drives.
type Commander interface {
	BeginIdle(start time.Time) error
	EndIdle(end time.Time) error
	AutoStartBreak(at time.Time) error
}

// Config holds the idle detection thresholds. Both thresholds are measured
// from the last reported input.
type Config struct {
	Threshold      time.Duration
	BreakThreshold time.Duration
	SampleInterval time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		Threshold:      60 * time.Second,
		BreakThreshold: 300 * time.Second,
		SampleInterval: time.Second,
	}
}

// stopGrace is added to one sample interval when waiting for the loop to exit.
const stopGrace = time.Second

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock sets the time source used by the sampling loop.
func WithClock(c clock.Clock) Option {
	return func(m *Monitor) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

type actionKind int

const (
	beginIdle actionKind = iota
	endIdle
	autoBreak
)

// action is a Commander call decided under mu and made after it is released.
type action struct {
	at   time.Time
	kind actionKind
	gen  uint64
}

// Monitor samples input recency while the session is active. Decisions are
// taken under mu, which only guards the monitor's own fields; the resulting
// Commander calls are queued and made in order by whichever caller holds
// callMu, so reporting input never waits for the session to be saved.
type Monitor struct {
	mu          sync.Mutex
	callMu      sync.Mutex
	cfg         Config
	cmd         Commander
	clock       clock.Clock
	logger      *slog.Logger
	lastInput   time.Time
	stopCh      chan struct{}
	done        chan struct{}
	degradErr   error
	queue       []action
	gen         uint64
	running     bool
	idleOpen    bool
	escalating  bool
	autoStopped bool
}

// New returns a stopped Monitor.
func New(cmd Commander, cfg Config, opts ...Option) *Monitor {
	def := DefaultConfig()

	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}

	if cfg.BreakThreshold < cfg.Threshold {
		cfg.BreakThreshold = cfg.Threshold
	}

	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = def.SampleInterval
	}

	m := &Monitor{
		cfg:    cfg,
		cmd:    cmd,
		clock:  clock.Real{},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// Start launches the sampling loop. The moment of starting counts as input.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.gen++
	m.running = true
	m.idleOpen = false
	m.escalating = false
	m.autoStopped = false
	m.lastInput = m.clock.Now()
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(m.stopCh, m.done)
}

// Stop signals the sampling loop and waits at most one sample interval plus a
// short grace period for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()

	if !m.running {
		m.mu.Unlock()
		return
	}

	done := m.stopLocked()
	m.mu.Unlock()

	select {
	case <-done:
	case <-time.After(m.cfg.SampleInterval + stopGrace):
		m.logger.Warn("idle monitor did not stop in time")
	}
}

// Running reports whether the sampling loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.running
}

// Degraded returns the error that disabled idle detection, if any.
func (m *Monitor) Degraded() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.degradErr
}

// Degrade permanently disables idle detection. The session is treated as
// always active from here on and an open idle period is closed.
func (m *Monitor) Degrade(err error) {
	m.mu.Lock()

	if m.degradErr != nil {
		m.mu.Unlock()
		return
	}

	m.degradErr = err

	m.logger.Warn("idle detection disabled", "error", err)

	if m.idleOpen && !m.escalating {
		m.enqueueLocked(endIdle, m.clock.Now())
		m.idleOpen = false
	}

	m.mu.Unlock()

	m.flush()
}

// NotifyActivity records user input at ts. A gap of at least the idle
// threshold since the previous input is recorded as idle even if no sample
// saw it, and a gap of at least the break threshold starts a break at its
// boundary.
func (m *Monitor) NotifyActivity(ts time.Time) {
	m.mu.Lock()

	if !m.running || m.degradErr != nil || m.escalating ||
		!ts.After(m.lastInput) {
		m.mu.Unlock()
		return
	}

	gap := ts.Sub(m.lastInput)

	if !m.idleOpen && gap >= m.cfg.Threshold {
		m.enqueueLocked(beginIdle, m.lastInput)
		m.idleOpen = true
	}

	switch {
	case m.idleOpen && gap >= m.cfg.BreakThreshold:
		m.escalateLocked()
	case m.idleOpen:
		m.enqueueLocked(endIdle, ts)
		m.idleOpen = false
		m.lastInput = ts
	default:
		m.lastInput = ts
	}

	m.mu.Unlock()

	m.flush()
}

// Sample evaluates the thresholds at now. It reports whether the monitor
// stopped itself after starting a break.
func (m *Monitor) Sample(now time.Time) bool {
	m.mu.Lock()

	if !m.running || m.degradErr != nil || m.escalating {
		m.mu.Unlock()
		return false
	}

	gen := m.gen
	quiet := now.Sub(m.lastInput)

	if !m.idleOpen && quiet >= m.cfg.Threshold {
		m.enqueueLocked(beginIdle, m.lastInput)
		m.idleOpen = true
	}

	if m.idleOpen && quiet >= m.cfg.BreakThreshold {
		m.escalateLocked()
	}

	m.mu.Unlock()

	m.flush()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.gen == gen && m.autoStopped
}

// escalateLocked queues a break starting at the break boundary.
func (m *Monitor) escalateLocked() {
	m.enqueueLocked(autoBreak, m.lastInput.Add(m.cfg.BreakThreshold))
	m.escalating = true
}

func (m *Monitor) enqueueLocked(kind actionKind, at time.Time) {
	m.queue = append(m.queue, action{kind: kind, at: at, gen: m.gen})
}

func (m *Monitor) stopLocked() <-chan struct{} {
	m.running = false
	m.idleOpen = false
	m.escalating = false
	close(m.stopCh)

	return m.done
}

// flush makes the queued Commander calls unless another caller is already
// doing so; that caller picks up whatever was queued here.
func (m *Monitor) flush() {
	for {
		if !m.callMu.TryLock() {
			return
		}

		m.drain()
		m.callMu.Unlock()

		m.mu.Lock()
		empty := len(m.queue) == 0
		m.mu.Unlock()

		if empty {
			return
		}
	}
}

// drain must be called with callMu held.
func (m *Monitor) drain() {
	for {
		m.mu.Lock()

		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}

		a := m.queue[0]
		m.queue = m.queue[1:]
		stale := a.gen != m.gen

		m.mu.Unlock()

		// queued before a restart
		if stale {
			continue
		}

		err := m.call(a)

		m.mu.Lock()
		if a.gen == m.gen {
			m.settleLocked(a, err)
		}
		m.mu.Unlock()
	}
}

func (m *Monitor) call(a action) error {
	switch a.kind {
	case beginIdle:
		return m.cmd.BeginIdle(a.at)
	case endIdle:
		return m.cmd.EndIdle(a.at)
	default:
		return m.cmd.AutoStartBreak(a.at)
	}
}

// settleLocked reconciles the monitor's view with the outcome of a call.
func (m *Monitor) settleLocked(a action, err error) {
	handled := errors.Is(err, session.ErrInvalidStateTransition)

	switch a.kind {
	case beginIdle:
		switch {
		case err == nil:
		case handled:
			m.idleOpen = false
			m.logger.Debug("idle start already handled", "error", err)
		default:
			m.idleOpen = false
			m.logger.Error("could not record idle period", "error", err)
		}

	case endIdle:
		switch {
		case err == nil, handled, errors.Is(err, session.ErrNoOpenPeriod):
			if err != nil {
				m.logger.Debug("idle end already handled", "error", err)
			}
		default:
			m.idleOpen = m.running
			m.logger.Error("could not close idle period", "error", err)
		}

	case autoBreak:
		m.escalating = false

		switch {
		case err == nil || handled:
			if err == nil {
				m.logger.Info("idle escalated to break", "at", a.at)
			} else {
				m.logger.Debug("break already started", "error", err)
			}

			if m.running {
				m.stopLocked()
			}

			m.autoStopped = true
		case errors.Is(err, session.ErrNoOpenPeriod):
			m.idleOpen = false
			m.logger.Debug("idle period already closed", "error", err)
		default:
			m.logger.Error("could not start break", "error", err)
		}
	}
}

func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.Sample(m.clock.Now()) {
				return
			}
		}
	}
}
