package tui

import "github.com/gen2brain/beeep"

// DesktopNotifier shows notifications through the desktop notification
// service.
func DesktopNotifier() Notifier {
	return func(title, message string) error {
		return beeep.Notify(title, message, "")
	}
}
