package ui

import (
	"github.com/pterm/pterm"
)

// DarkTheme selects the light variants of each colour.
var DarkTheme bool

func Green(a any) string {
	if DarkTheme {
		return pterm.LightGreen(a)
	}

	return pterm.Green(a)
}

func Yellow(a any) string {
	if DarkTheme {
		return pterm.LightYellow(a)
	}

	return pterm.Yellow(a)
}

func Red(a any) string {
	if DarkTheme {
		return pterm.LightRed(a)
	}

	return pterm.Red(a)
}

// State colours a session state name: green while working, yellow on a
// break and grey otherwise.
func State(state string) string {
	switch state {
	case "active":
		return Green(state)
	case "break":
		return Yellow(state)
	default:
		return pterm.Gray(state)
	}
}
