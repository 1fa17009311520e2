package config

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// CLIOptions represents command-line configuration options. Zero values mean
// the flag was not provided.
type CLIOptions struct {
	Sphere             string
	Backend            string
	IdleThreshold      uint
	IdleBreakThreshold uint
	NoIdle             bool
	Resume             bool
	DisableNotify      bool
}

// WithCLIConfig returns an Option that loads configuration from CLI flags.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Sphere:             ctx.String("sphere"),
			Backend:            ctx.String("backend"),
			IdleThreshold:      ctx.Uint("idle-threshold"),
			IdleBreakThreshold: ctx.Uint("idle-break-threshold"),
			NoIdle:             ctx.Bool("no-idle"),
			Resume:             ctx.Bool("resume"),
			DisableNotify:      ctx.Bool("disable-notification"),
		}

		applyCLIOptions(c, opts)

		return nil
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts CLIOptions) {
	if sphere := strings.TrimSpace(opts.Sphere); sphere != "" {
		c.Session.Sphere = sphere
	}

	if opts.Backend != "" {
		c.Storage.Backend = strings.ToLower(opts.Backend)
	}

	if opts.IdleThreshold > 0 {
		c.Idle.ThresholdSeconds = int(opts.IdleThreshold)
	}

	if opts.IdleBreakThreshold > 0 {
		c.Idle.BreakThresholdSeconds = int(opts.IdleBreakThreshold)
	}

	if opts.NoIdle {
		c.Idle.Enabled = false
	}

	if opts.Resume {
		c.Session.ResumeInterrupted = true
	}

	if opts.DisableNotify {
		c.Notifications.Enabled = false
	}
}
