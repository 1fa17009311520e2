package config

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

const asciiLogo = `
██╗    ██╗ ██████╗ ██████╗ ██╗  ██╗██╗      ██████╗  ██████╗
██║    ██║██╔═══██╗██╔══██╗██║ ██╔╝██║     ██╔═══██╗██╔════╝
██║ █╗ ██║██║   ██║██████╔╝█████╔╝ ██║     ██║   ██║██║  ███╗
██║███╗██║██║   ██║██╔══██╗██╔═██╗ ██║     ██║   ██║██║   ██║
╚███╔███╔╝╚██████╔╝██║  ██║██║  ██╗███████╗╚██████╔╝╚██████╔╝
 ╚══╝╚══╝  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝ ╚═════╝  ╚═════╝`

// PromptOptions holds the user's responses to the configuration prompts.
type PromptOptions struct {
	Backend            string
	Sphere             string
	IdleThreshold      int
	IdleBreakThreshold int
}

// WithPromptConfig returns an Option that configures settings via
// interactive prompts. The prompt only runs when no config file exists yet.
func WithPromptConfig(configPath string) Option {
	return func(c *Config) error {
		_, err := os.Stat(configPath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return err
		}

		opts, err := promptUser()
		if err != nil {
			return errPrompt.Wrap(err)
		}

		applyPromptOptions(c, opts)

		return nil
	}
}

// promptUser handles the interactive configuration process.
func promptUser() (PromptOptions, error) {
	opts := PromptOptions{
		Sphere: "work",
	}

	pterm.Println(asciiLogo)

	_ = putils.BulletListFromString(`Follow the prompts below to configure worklog for the first time.
Select your preferred value, or press ENTER to accept the defaults.
Edit the config file with 'worklog edit-config' to change any settings.`, " ").
		Render()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default sphere").
				Description("The category new sessions are filed under").
				Value(&opts.Sphere),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Mark yourself idle after").
				Options(
					huh.NewOption("30 seconds", 30),
					huh.NewOption("1 minute", 60).Selected(true),
					huh.NewOption("2 minutes", 120),
					huh.NewOption("3 minutes", 180),
				).
				Value(&opts.IdleThreshold),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Start a break automatically after").
				Options(
					huh.NewOption("5 minutes", 300).Selected(true),
					huh.NewOption("10 minutes", 600),
					huh.NewOption("15 minutes", 900),
					huh.NewOption("30 minutes", 1800),
				).
				Value(&opts.IdleBreakThreshold),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage").
				Options(
					huh.NewOption("JSON file", BackendFile).Selected(true),
					huh.NewOption("BoltDB database", BackendBolt),
				).
				Value(&opts.Backend),
		),
	)

	if err := form.Run(); err != nil {
		return opts, err
	}

	return opts, nil
}

// applyPromptOptions applies the user's prompt responses to the configuration.
func applyPromptOptions(c *Config, opts PromptOptions) {
	c.Session.Sphere = strings.TrimSpace(opts.Sphere)
	c.Idle.ThresholdSeconds = opts.IdleThreshold
	c.Idle.BreakThresholdSeconds = opts.IdleBreakThreshold
	c.Storage.Backend = opts.Backend
}
