package store

import "github.com/ayoisaiah/worklog/internal/apperr"

var (
	ErrPersistenceWrite = &apperr.Error{
		Message: "changes could not be saved",
	}

	ErrCorruptDataFile = &apperr.Error{
		Message: "saved data in %s could not be read",
	}

	ErrNotFound = &apperr.Error{
		Message: "no saved data",
	}

	errWorklogRunning = &apperr.Error{
		Message: "is worklog already running? Only one instance can be active at a time",
	}

	errUnsupportedVersion = &apperr.Error{
		Message: "document version %d is newer than the supported version %d",
	}

	errInvalidBackupName = &apperr.Error{
		Message: "invalid backup name %q",
	}
)
