package idle

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// xprintidleProvider reads the X11 idle time through xprintidle.
type xprintidleProvider struct {
	path string
}

func newProvider() Provider {
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") &&
		os.Getenv("DISPLAY") == "" {
		return unsupportedProvider{}
	}

	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedProvider{}
	}

	return &xprintidleProvider{path: path}
}

func (p *xprintidleProvider) IdleDuration() (time.Duration, error) {
	out, err := exec.Command(p.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}

	return parseMillis(string(out))
}

func parseMillis(s string) (time.Duration, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}

	if ms < 0 {
		ms = 0
	}

	return time.Duration(ms) * time.Millisecond, nil
}
