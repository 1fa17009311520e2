package tui

import "github.com/charmbracelet/lipgloss"

const padding = 2

type styles struct {
	Base      lipgloss.Style
	Active    lipgloss.Style
	Break     lipgloss.Style
	Stopped   lipgloss.Style
	Main      lipgloss.Style
	Secondary lipgloss.Style
	Hint      lipgloss.Style
	Warning   lipgloss.Style
}

func newStyles(darkTheme bool) styles {
	text := lipgloss.Color("#333333")
	if darkTheme {
		text = lipgloss.Color("#FAFAFA")
	}

	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Padding(0, 1).
		MarginRight(1)

	return styles{
		Base:      lipgloss.NewStyle().Padding(1, padding),
		Active:    badge.Background(lipgloss.Color("#04B575")),
		Break:     badge.Background(lipgloss.Color("#E5A50A")),
		Stopped:   badge.Background(lipgloss.Color("#626262")),
		Main:      lipgloss.NewStyle().Bold(true).Foreground(text),
		Secondary: lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD")),
		Hint:      lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
}
