package tui

import "github.com/charmbracelet/bubbles/key"

type keymap struct {
	startBreak key.Binding
	resume     key.Binding
	end        key.Binding
	detach     key.Binding
}

var defaultKeymap = keymap{
	startBreak: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "break"),
	),
	resume: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "resume"),
	),
	end: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "end session"),
	),
	detach: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "detach"),
	),
}
