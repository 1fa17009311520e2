package config

import (
	"slices"
	"strings"
	"time"
)

var (
	minIdleThreshold  = 10
	maxIdleThreshold  = 3600
	maxBreakThreshold = 4 * 3600

	minSampleInterval = 100 * time.Millisecond
	maxSampleInterval = time.Minute

	minBackupInterval = 10
	maxBackupInterval = 24 * 3600

	minSaveTimeout = 100 * time.Millisecond
	maxSaveTimeout = time.Minute
	maxSaveRetries = 10

	logLevels = []string{"debug", "info", "warn", "error"}
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := c.validateIdle(); err != nil {
		return err
	}

	if err := c.validateBackup(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return errUnknownLogLevel.Fmt(c.Log.Level)
	}

	return nil
}

// validateIdle checks the thresholds even when idle detection is disabled
// since they are stored with every saved document.
func (c *Config) validateIdle() error {
	idle := c.Idle

	if idle.ThresholdSeconds < minIdleThreshold ||
		idle.ThresholdSeconds > maxIdleThreshold {
		return errInvalidIdleThreshold.Fmt(
			minIdleThreshold,
			maxIdleThreshold,
			idle.ThresholdSeconds,
		)
	}

	if idle.BreakThresholdSeconds <= idle.ThresholdSeconds {
		return errBreakBeforeIdle.Fmt(
			idle.BreakThresholdSeconds,
			idle.ThresholdSeconds,
		)
	}

	if idle.BreakThresholdSeconds > maxBreakThreshold {
		return errInvalidBreakThreshold.Fmt(
			maxBreakThreshold,
			idle.BreakThresholdSeconds,
		)
	}

	if idle.SampleInterval < minSampleInterval ||
		idle.SampleInterval > maxSampleInterval {
		return errInvalidSampleInterval.Fmt(
			minSampleInterval,
			maxSampleInterval,
			idle.SampleInterval,
		)
	}

	return nil
}

func (c *Config) validateBackup() error {
	if c.Backup.IntervalSeconds < minBackupInterval ||
		c.Backup.IntervalSeconds > maxBackupInterval {
		return errInvalidBackupInterval.Fmt(
			minBackupInterval,
			maxBackupInterval,
			c.Backup.IntervalSeconds,
		)
	}

	if c.Backup.Keep < 0 {
		return errInvalidBackupKeep.Fmt(c.Backup.Keep)
	}

	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Backend != BackendFile && c.Storage.Backend != BackendBolt {
		return errUnknownBackend.Fmt(c.Storage.Backend)
	}

	if c.Storage.SaveTimeout < minSaveTimeout ||
		c.Storage.SaveTimeout > maxSaveTimeout {
		return errInvalidSaveTimeout.Fmt(
			minSaveTimeout,
			maxSaveTimeout,
			c.Storage.SaveTimeout,
		)
	}

	if c.Storage.SaveRetries < 0 || c.Storage.SaveRetries > maxSaveRetries {
		return errInvalidSaveRetries.Fmt(maxSaveRetries, c.Storage.SaveRetries)
	}

	return nil
}
