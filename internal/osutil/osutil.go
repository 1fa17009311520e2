// Package osutil holds platform names, exit codes and file modes
package osutil

const Windows = "windows"

// ExitCode is the process exit status.
type ExitCode int

const ExitError ExitCode = 1

const (
	DirPermission  = 0o755
	FilePermission = 0o600
)
