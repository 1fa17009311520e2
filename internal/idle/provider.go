package idle

import (
	"time"

	"github.com/ayoisaiah/worklog/internal/apperr"
)

// ErrIdleUnsupported indicates that input recency cannot be read on this
// system.
var ErrIdleUnsupported = &apperr.Error{
	Message: "idle detection is not supported on this system",
}

// Provider returns the duration since the last keyboard or mouse input.
type Provider interface {
	IdleDuration() (time.Duration, error)
}

// NewProvider returns the provider for the current platform.
func NewProvider() Provider {
	return newProvider()
}

type unsupportedProvider struct{}

func (unsupportedProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrIdleUnsupported
}
