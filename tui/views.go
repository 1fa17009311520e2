package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ayoisaiah/worklog/internal/session"
	"github.com/ayoisaiah/worklog/internal/timeutil"
)

func (m *Model) badge() string {
	switch m.status.State {
	case session.Active:
		return m.styles.Active.Render("WORKING")
	case session.Break:
		return m.styles.Break.Render("ON BREAK")
	default:
		return m.styles.Stopped.Render("STOPPED")
	}
}

// periodView shows the time spent in the current period.
func (m *Model) periodView() string {
	var s strings.Builder

	elapsed := m.status.Now.Sub(m.status.PeriodStart)

	s.WriteString(m.styles.Main.Render(timeutil.FormatDuration(elapsed)))
	s.WriteString(" ")
	s.WriteString(m.styles.Hint.Render(
		"since " + timeutil.FormatClock(m.status.PeriodStart, m.opts.TwentyFourHour),
	))

	return s.String()
}

func (m *Model) totalsView() string {
	return m.styles.Secondary.Render(fmt.Sprintf(
		"active %s · break %s · idle %s",
		timeutil.FormatDuration(m.status.Active),
		timeutil.FormatDuration(m.status.Break),
		timeutil.FormatDuration(m.status.Idle),
	))
}

func (m *Model) flagsView() string {
	var flags []string

	if m.status.Idling {
		flags = append(flags, m.styles.Hint.Render(
			"idle since "+timeutil.FormatClock(m.status.IdleSince, m.opts.TwentyFourHour),
		))
	}

	if err := m.tracker.IdleErr(); err != nil {
		flags = append(flags, m.styles.Hint.Render("idle detection off"))
	}

	if m.status.Unsaved {
		text := "unsaved changes"
		if m.status.LastSaveErr != nil {
			text += ": " + m.status.LastSaveErr.Error()
		}

		flags = append(flags, m.styles.Warning.Render(text))
	}

	return strings.Join(flags, "\n")
}

func (m *Model) helpView() string {
	bindings := []key.Binding{defaultKeymap.end, defaultKeymap.detach}

	switch m.status.State {
	case session.Active:
		bindings = append([]key.Binding{defaultKeymap.startBreak}, bindings...)
	case session.Break:
		bindings = append([]key.Binding{defaultKeymap.resume}, bindings...)
	}

	return m.help.ShortHelpView(bindings)
}

func (m *Model) View() string {
	if m.summary != nil {
		return ""
	}

	var s strings.Builder

	s.WriteString(m.badge())

	if m.status.Sphere != "" {
		s.WriteString(m.styles.Hint.Render(m.status.Sphere))
	}

	if m.status.State != session.Stopped {
		s.WriteString("\n\n" + m.periodView())
		s.WriteString("\n\n" + m.totalsView())
	}

	if flags := m.flagsView(); flags != "" {
		s.WriteString("\n\n" + flags)
	}

	if m.feedback != "" {
		style := m.styles.Secondary
		if m.warn {
			style = m.styles.Warning
		}

		s.WriteString("\n\n" + style.Render(m.feedback))
	}

	s.WriteString("\n\n" + m.helpView())

	return m.styles.Base.Render(s.String())
}
