package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// viperKeys defines the mapping between config keys and their Viper counterparts.
const (
	keyIdleEnabled          = "idle.enabled"
	keyIdleThreshold        = "idle.threshold_seconds"
	keyIdleBreakThreshold   = "idle.break_threshold_seconds"
	keyIdleSampleInterval   = "idle.sample_interval"
	keyBackupInterval       = "backup.interval_seconds"
	keyBackupKeep           = "backup.keep"
	keyStorageBackend       = "storage.backend"
	keyStorageSaveTimeout   = "storage.save_timeout"
	keyStorageSaveRetries   = "storage.save_retries"
	keySessionSphere        = "session.sphere"
	keySessionResume        = "session.resume_interrupted"
	keySessionCmd           = "session.cmd"
	keyNotificationsEnabled = "notifications.enabled"
	keyDarkTheme            = "display.dark_theme"
	keyTwentyFourHour       = "display.24hr_clock"
	keyLogLevel             = "log.level"
)

// WithViperConfig returns an Option that loads configuration from Viper. A
// config file with default values is written if none exists.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		c.System.ConfigPath = configPath

		setupViper(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		seedFromPrompt(v, c)

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return loadViperConfig(v, c)
	}
}

// setupViper configures Viper with defaults.
func setupViper(v *viper.Viper) {
	v.SetDefault(keyIdleEnabled, true)
	v.SetDefault(keyIdleThreshold, 60)
	v.SetDefault(keyIdleBreakThreshold, 300)
	v.SetDefault(keyIdleSampleInterval, "1s")
	v.SetDefault(keyBackupInterval, 300)
	v.SetDefault(keyBackupKeep, 48)
	v.SetDefault(keyStorageBackend, BackendFile)
	v.SetDefault(keyStorageSaveTimeout, "5s")
	v.SetDefault(keyStorageSaveRetries, 3)
	v.SetDefault(keySessionSphere, "work")
	v.SetDefault(keySessionResume, false)
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keyNotificationsEnabled, true)
	v.SetDefault(keyDarkTheme, true)
	v.SetDefault(keyTwentyFourHour, false)
	v.SetDefault(keyLogLevel, "info")
}

// seedFromPrompt stores the answers of the first-run prompt so that they are
// written to the new config file.
func seedFromPrompt(v *viper.Viper, c *Config) {
	if c.Storage.Backend != "" {
		v.Set(keyStorageBackend, c.Storage.Backend)
	}

	if c.Idle.ThresholdSeconds != 0 {
		v.Set(keyIdleThreshold, c.Idle.ThresholdSeconds)
	}

	if c.Idle.BreakThresholdSeconds != 0 {
		v.Set(keyIdleBreakThreshold, c.Idle.BreakThresholdSeconds)
	}

	if c.Session.Sphere != "" {
		v.Set(keySessionSphere, c.Session.Sphere)
	}
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	system := c.System

	if err := v.Unmarshal(c); err != nil {
		return errReadConfig.Wrap(err)
	}

	c.System = system

	return nil
}
