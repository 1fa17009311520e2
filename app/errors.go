package app

import "github.com/ayoisaiah/worklog/internal/apperr"

var (
	errInvalidSince = &apperr.Error{
		Message: "--since must be a date or a relative time such as '3 days ago'",
	}

	errSessionCmd = &apperr.Error{
		Message: "unable to parse session.cmd option",
	}

	errSessionCmdFailed = &apperr.Error{
		Message: "session.cmd exited with an error",
	}
)
