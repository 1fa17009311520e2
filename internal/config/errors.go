package config

import "github.com/ayoisaiah/worklog/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errPrompt = &apperr.Error{
		Message: "user prompt failed",
	}

	errInvalidIdleThreshold = &apperr.Error{
		Message: "idle threshold must be between %d and %d seconds, got %d",
	}

	errBreakBeforeIdle = &apperr.Error{
		Message: "idle break threshold (%ds) must be greater than the idle threshold (%ds)",
	}

	errInvalidBreakThreshold = &apperr.Error{
		Message: "idle break threshold must be at most %d seconds, got %d",
	}

	errInvalidSampleInterval = &apperr.Error{
		Message: "idle sample interval must be between %v and %v, got %v",
	}

	errInvalidBackupInterval = &apperr.Error{
		Message: "backup interval must be between %d and %d seconds, got %d",
	}

	errInvalidBackupKeep = &apperr.Error{
		Message: "number of backups to keep cannot be negative, got %d",
	}

	errUnknownBackend = &apperr.Error{
		Message: "unknown storage backend %q (must be file or bolt)",
	}

	errInvalidSaveTimeout = &apperr.Error{
		Message: "save timeout must be between %v and %v, got %v",
	}

	errInvalidSaveRetries = &apperr.Error{
		Message: "save retries must be between 0 and %d, got %d",
	}

	errUnknownLogLevel = &apperr.Error{
		Message: "unknown log level %q",
	}
)
