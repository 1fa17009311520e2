// Package tracker wires the session machine to idle detection and
// persistence.
package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayoisaiah/worklog/internal/clock"
	"github.com/ayoisaiah/worklog/internal/config"
	"github.com/ayoisaiah/worklog/internal/idle"
	"github.com/ayoisaiah/worklog/internal/session"
	"github.com/ayoisaiah/worklog/store"
)

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source for every component.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithLogger sets the logger for every component.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithProvider overrides the platform input-recency provider. A nil provider
// disables the watcher; activity must then be reported through
// NotifyActivity.
func WithProvider(p idle.Provider) Option {
	return func(t *Tracker) {
		t.provider = p
		t.providerSet = true
	}
}

// Tracker owns a session machine, the idle monitor that drives it and the
// store manager it saves to.
type Tracker struct {
	machine     *session.Machine
	monitor     *idle.Monitor
	manager     *store.Manager
	provider    idle.Provider
	cfg         *config.Config
	clock       clock.Clock
	logger      *slog.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	providerSet bool
}

// New builds a Tracker saving to manager. Idle detection is only set up when
// it is enabled in cfg.
func New(cfg *config.Config, manager *store.Manager, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:     cfg,
		manager: manager,
		clock:   clock.Real{},
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	if !t.providerSet {
		t.provider = idle.NewProvider()
	}

	t.machine = session.New(
		session.WithClock(t.clock),
		session.WithSaver(manager),
		session.WithLogger(t.logger),
	)

	if cfg.Idle.Enabled {
		t.monitor = idle.New(t.machine, idle.Config{
			Threshold:      cfg.IdleThreshold(),
			BreakThreshold: cfg.IdleBreakThreshold(),
			SampleInterval: cfg.Idle.SampleInterval,
		}, idle.WithClock(t.clock), idle.WithLogger(t.logger))
	}

	return t
}

// Machine returns the underlying session machine.
func (t *Tracker) Machine() *session.Machine {
	return t.machine
}

// Monitor returns the idle monitor, or nil if idle detection is disabled.
func (t *Tracker) Monitor() *idle.Monitor {
	return t.monitor
}

// IdleErr returns the reason idle detection stopped working, if it did.
func (t *Tracker) IdleErr() error {
	if t.monitor == nil {
		return nil
	}

	return t.monitor.Degraded()
}

// Status returns the session state with running totals.
func (t *Tracker) Status() session.Status {
	return t.machine.Status()
}

// Open loads saved sessions. A session left open by an unclean shutdown is
// either resumed or closed at the time it was last saved, depending on the
// configuration. The summary is only set when a session was closed.
func (t *Tracker) Open(ctx context.Context) (store.RecoveryInfo, *session.Summary, error) {
	st, info := t.manager.LoadOrRecover(ctx)

	if err := t.machine.Restore(st); err != nil {
		return info, nil, err
	}

	if !info.Incomplete {
		return info, nil, nil
	}

	if t.cfg.Session.ResumeInterrupted {
		t.logger.Info("resuming interrupted session", "last_saved", info.LastSavedAt)

		if t.machine.Status().Idling {
			// nothing is known about input since the crash
			_ = t.machine.EndIdle(t.clock.Now())
		}

		t.syncMonitor()

		return info, nil, nil
	}

	summary, err := t.machine.CloseInterrupted(info.LastSavedAt)
	if err != nil {
		return info, nil, err
	}

	t.logger.Info(
		"closed interrupted session",
		"session", summary.SessionID,
		"ended", summary.EndTime,
	)

	return info, &summary, nil
}

// Run starts the backup loop and, when idle detection is enabled, the input
// watcher. It returns immediately.
func (t *Tracker) Run(ctx context.Context) {
	t.manager.Start()

	if t.monitor == nil || t.provider == nil {
		return
	}

	ctx, t.cancel = context.WithCancel(ctx)

	w := idle.NewWatcher(
		t.provider,
		t.monitor,
		t.monitor.Config().SampleInterval,
		t.clock,
		t.logger,
	)

	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		w.Run(ctx)
	}()
}

// NotifyActivity reports user input to the idle monitor.
func (t *Tracker) NotifyActivity() {
	if t.monitor != nil {
		t.monitor.NotifyActivity(t.clock.Now())
	}
}

// StartSession starts a session in sphere, or in the configured default
// sphere when empty.
func (t *Tracker) StartSession(sphere string) (string, error) {
	if sphere == "" {
		sphere = t.cfg.Session.Sphere
	}

	id, err := t.machine.StartSession(sphere)

	t.syncMonitor()

	return id, err
}

func (t *Tracker) StartBreak() error {
	err := t.machine.StartBreak()

	t.syncMonitor()

	return err
}

func (t *Tracker) EndBreak() error {
	err := t.machine.EndBreak()

	t.syncMonitor()

	return err
}

func (t *Tracker) EndSession() (session.Summary, error) {
	summary, err := t.machine.EndSession()

	t.syncMonitor()

	return summary, err
}

// syncMonitor runs the idle monitor exactly while the session is active.
func (t *Tracker) syncMonitor() {
	if t.monitor == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.machine.State() == session.Active

	switch {
	case active && !t.monitor.Running():
		t.monitor.Start()
	case !active && t.monitor.Running():
		t.monitor.Stop()
	}
}

// Close stops every background loop, writes a last backup and closes the
// store. An open session stays open and is recovered on the next start.
func (t *Tracker) Close() error {
	if t.monitor != nil {
		t.monitor.Stop()
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.wg.Wait()

	t.machine.Close()

	if _, err := t.manager.Backup(context.Background()); err != nil {
		t.logger.Warn("final backup failed", "error", err)
	}

	return t.manager.Close()
}
