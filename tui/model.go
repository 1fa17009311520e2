// Package tui renders the running session and turns key presses into session
// commands
package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/davecgh/go-spew/spew"

	"github.com/ayoisaiah/worklog/internal/session"
	"github.com/ayoisaiah/worklog/internal/timeutil"
)

const (
	refreshInterval = time.Second
	maxWidth        = 80
)

// Tracker is the set of session commands the model drives.
type Tracker interface {
	StartBreak() error
	EndBreak() error
	EndSession() (session.Summary, error)
	NotifyActivity()
	Status() session.Status
	IdleErr() error
}

// Notifier shows a desktop notification.
type Notifier func(title, message string) error

// Options controls presentation.
type Options struct {
	Notify         Notifier
	Events         <-chan session.Event
	Logger         *slog.Logger
	DarkTheme      bool
	TwentyFourHour bool
}

type (
	tickMsg  time.Time
	eventMsg session.Event
)

// Model is the bubbletea model for a running session.
type Model struct {
	tracker  Tracker
	opts     Options
	logger   *slog.Logger
	help     help.Model
	styles   styles
	status   session.Status
	summary  *session.Summary
	feedback string
	warn     bool
	width    int
}

// New returns a model bound to t.
func New(t Tracker, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Model{
		tracker: t,
		opts:    opts,
		logger:  logger,
		help:    help.New(),
		styles:  newStyles(opts.DarkTheme),
		status:  t.Status(),
	}
}

// Summary returns the summary of the session ended from the model, if any.
func (m *Model) Summary() *session.Summary {
	return m.summary
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}

		return eventMsg(ev)
	}
}

func (m *Model) Init() tea.Cmd {
	if m.opts.Events == nil {
		return tick()
	}

	return tea.Batch(tick(), waitForEvent(m.opts.Events))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.status = m.tracker.Status()

		return m, tick()

	case eventMsg:
		return m.handleEvent(session.Event(msg))

	case tea.KeyMsg:
		m.logger.Debug(spew.Sdump(msg))

		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = min(msg.Width-padding*2, maxWidth)
		m.help.Width = m.width

		return m, nil
	}

	return m, nil
}

func (m *Model) handleEvent(ev session.Event) (tea.Model, tea.Cmd) {
	m.status = m.tracker.Status()

	if ev.Type == session.EventTransition &&
		ev.Cause == session.CauseIdle &&
		ev.To == session.Break {
		m.setFeedback("No input for a while, so a break was started", false)

		if m.opts.Notify != nil {
			go m.notifyAutoBreak(ev.At)
		}
	}

	return m, waitForEvent(m.opts.Events)
}

func (m *Model) notifyAutoBreak(at time.Time) {
	err := m.opts.Notify(
		"Break started",
		"You have been away since "+timeutil.FormatClock(at, m.opts.TwentyFourHour)+
			". Press r to resume.",
	)
	if err != nil {
		m.logger.Warn("unable to display notification", "error", err)
	}
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.tracker.NotifyActivity()

	switch {
	case key.Matches(msg, defaultKeymap.startBreak):
		m.apply(m.tracker.StartBreak(), "Break started")

	case key.Matches(msg, defaultKeymap.resume):
		m.apply(m.tracker.EndBreak(), "Back to work")

	case key.Matches(msg, defaultKeymap.end):
		summary, err := m.tracker.EndSession()
		if err == nil {
			m.summary = &summary
			return m, tea.Quit
		}

		// nothing to end
		if m.tracker.Status().State == session.Stopped {
			return m, tea.Quit
		}

		m.apply(err, "")

	case key.Matches(msg, defaultKeymap.detach):
		return m, tea.Quit
	}

	return m, nil
}

// apply records the outcome of a command. Rejected commands only change the
// feedback line.
func (m *Model) apply(err error, ok string) {
	m.status = m.tracker.Status()

	if err == nil {
		m.setFeedback(ok, false)
		return
	}

	m.logger.Info("command rejected", "error", err)

	if errors.Is(err, session.ErrInvalidStateTransition) {
		m.setFeedback(rejectedText(m.status.State), true)
		return
	}

	m.setFeedback(err.Error(), true)
}

func (m *Model) setFeedback(text string, warn bool) {
	m.feedback = text
	m.warn = warn
}

func rejectedText(state session.State) string {
	switch state {
	case session.Active:
		return "You are already working"
	case session.Break:
		return "You are already on a break"
	default:
		return "No session is running"
	}
}
