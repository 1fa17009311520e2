// Package config loads worklog settings from the config file, command-line
// flags and the first-run prompt
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayoisaiah/worklog/internal/models"
)

type (
	// Config holds all configuration settings
	Config struct {
		Session       SessionConfig      `mapstructure:"session"`
		Storage       StorageConfig      `mapstructure:"storage"`
		Log           LogConfig          `mapstructure:"log"`
		System        SystemConfig       `mapstructure:"-"`
		Idle          IdleConfig         `mapstructure:"idle"`
		Backup        BackupConfig       `mapstructure:"backup"`
		Notifications NotificationConfig `mapstructure:"notifications"`
		Display       DisplayConfig      `mapstructure:"display"`
	}

	// IdleConfig holds idle detection settings
	IdleConfig struct {
		ThresholdSeconds      int           `mapstructure:"threshold_seconds"`
		BreakThresholdSeconds int           `mapstructure:"break_threshold_seconds"`
		SampleInterval        time.Duration `mapstructure:"sample_interval"`
		Enabled               bool          `mapstructure:"enabled"`
	}

	// BackupConfig holds periodic backup settings
	BackupConfig struct {
		IntervalSeconds int `mapstructure:"interval_seconds"`
		Keep            int `mapstructure:"keep"`
	}

	// StorageConfig holds persistence settings
	StorageConfig struct {
		Backend     string        `mapstructure:"backend"`
		SaveTimeout time.Duration `mapstructure:"save_timeout"`
		SaveRetries int           `mapstructure:"save_retries"`
	}

	// SessionConfig holds session-related settings
	SessionConfig struct {
		Sphere            string `mapstructure:"sphere"`
		Cmd               string `mapstructure:"cmd"`
		ResumeInterrupted bool   `mapstructure:"resume_interrupted"`
	}

	// NotificationConfig holds notification settings
	NotificationConfig struct {
		Enabled bool `mapstructure:"enabled"`
	}

	// DisplayConfig holds display-related settings
	DisplayConfig struct {
		DarkTheme      bool `mapstructure:"dark_theme"`
		TwentyFourHour bool `mapstructure:"24hr_clock"`
	}

	// LogConfig holds logging settings
	LogConfig struct {
		Level string `mapstructure:"level"`
	}

	// SystemConfig holds values that are not read from the config file
	SystemConfig struct {
		ConfigPath string
	}

	// Option is a function that modifies Config
	Option func(*Config) error
)

const Version = "v0.3.0"

const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// New creates a new Config and applies options in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}

// IdleThreshold is the input-free time after which an idle period opens.
func (c *Config) IdleThreshold() time.Duration {
	return time.Duration(c.Idle.ThresholdSeconds) * time.Second
}

// IdleBreakThreshold is the input-free time after which a break starts.
func (c *Config) IdleBreakThreshold() time.Duration {
	return time.Duration(c.Idle.BreakThresholdSeconds) * time.Second
}

// BackupInterval is the time between automatic backups.
func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalSeconds) * time.Second
}

// Settings returns the settings block stored with every saved document.
func (c *Config) Settings() models.Settings {
	return models.Settings{
		IdleThresholdSeconds:      c.Idle.ThresholdSeconds,
		IdleBreakThresholdSeconds: c.Idle.BreakThresholdSeconds,
		BackupIntervalSeconds:     c.Backup.IntervalSeconds,
	}
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"idle=%t threshold=%ds break_threshold=%ds backend=%s",
		c.Idle.Enabled,
		c.Idle.ThresholdSeconds,
		c.Idle.BreakThresholdSeconds,
		c.Storage.Backend,
	)
}
