// Package app defines the worklog command-line interface
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/worklog/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the worklog app instance.
func Get() *cli.App {
	worklogApp := &cli.App{
		Name: "worklog",
		Usage: `
		Worklog records how your working time is spent. It splits each session
		into active and break periods, notices when you step away from the
		keyboard and keeps your history safe across crashes.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Print the state of the current session",
				Flags:  storageFlags,
				Action: statusAction,
			},
			{
				Name:  "list",
				Usage: "List recorded sessions",
				Flags: append([]cli.Flag{
					sinceFlag,
					sphereFlag,
					jsonFlag,
				}, storageFlags...),
				Action: listAction,
			},
			{
				Name:   "backups",
				Usage:  "List the available backups",
				Flags:  storageFlags,
				Action: backupsAction,
			},
			{
				Name:   "recover",
				Usage:  "Report which saved copy of your sessions would be used on the next start",
				Flags:  storageFlags,
				Action: recoverAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags: []cli.Flag{
			sphereFlag,
			idleThresholdFlag,
			idleBreakThresholdFlag,
			noIdleFlag,
			backendFlag,
			resumeFlag,
			disableNotificationFlag,
			noColorFlag,
		},
		Action: defaultAction,
		Before: beforeAction,
	}

	return worklogApp
}
