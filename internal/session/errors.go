package session

import "github.com/ayoisaiah/worklog/internal/apperr"

var (
	ErrInvalidStateTransition = &apperr.Error{
		Message: "cannot %s while the session is %s",
	}

	ErrPeriodAlreadyOpen = &apperr.Error{
		Message: "a %s period is already open",
	}

	ErrNoOpenPeriod = &apperr.Error{
		Message: "no period is open",
	}

	ErrNegativeDuration = &apperr.Error{
		Message: "period cannot end at %s before it started at %s",
	}

	ErrPeriodOverlap = &apperr.Error{
		Message: "period starting at %s overlaps the previous period",
	}

	errUnknownKind = &apperr.Error{
		Message: "unknown period kind %q",
	}

	errRestoreInProgress = &apperr.Error{
		Message: "cannot restore saved sessions while a session is in progress",
	}

	errInvalidDocument = &apperr.Error{
		Message: "saved session document is invalid",
	}
)
