package app

import "github.com/urfave/cli/v2"

var (
	sphereFlag = &cli.StringFlag{
		Name:    "sphere",
		Aliases: []string{"s"},
		Usage:   "The area of work the session belongs to (default: work)",
	}

	idleThresholdFlag = &cli.UintFlag{
		Name:    "idle-threshold",
		Aliases: []string{"it"},
		Usage:   "Seconds without input before time is counted as idle (default: 60)",
	}

	idleBreakThresholdFlag = &cli.UintFlag{
		Name:    "idle-break-threshold",
		Aliases: []string{"ibt"},
		Usage:   "Seconds without input before a break is started automatically (default: 300)",
	}

	noIdleFlag = &cli.BoolFlag{
		Name:  "no-idle",
		Usage: "Disable idle detection for this session",
	}

	backendFlag = &cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Usage:   "Where sessions are saved: file or bolt (default: file)",
	}

	resumeFlag = &cli.BoolFlag{
		Name:    "resume",
		Aliases: []string{"r"},
		Usage:   "Continue a session that was interrupted instead of closing it",
	}

	disableNotificationFlag = &cli.BoolFlag{
		Name:    "disable-notification",
		Aliases: []string{"d"},
		Usage:   "Disable the system notification that appears when a break starts automatically",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Only show sessions started after this date (e.g. '2 days ago', '2026-10-01')",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the result as JSON",
	}
)

// storageFlags are accepted by every command that reads saved sessions.
var storageFlags = []cli.Flag{backendFlag}
