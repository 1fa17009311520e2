package idle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayoisaiah/worklog/internal/clock"
)

// Sink receives input activity derived from a Provider.
type Sink interface {
	NotifyActivity(ts time.Time)
	Degrade(err error)
}

// Watcher polls a Provider and forwards input activity to a Sink.
type Watcher struct {
	provider Provider
	sink     Sink
	clock    clock.Clock
	logger   *slog.Logger
	lastPoll time.Time
	interval time.Duration
}

// NewWatcher returns a Watcher polling p every interval.
func NewWatcher(
	p Provider,
	sink Sink,
	interval time.Duration,
	c clock.Clock,
	logger *slog.Logger,
) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}

	if c == nil {
		c = clock.Real{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		provider: p,
		sink:     sink,
		clock:    c,
		logger:   logger,
		interval: interval,
	}
}

// Poll reads the provider once. Input that happened after the previous poll
// is reported at the time it happened. It returns false once the provider is
// known to be unsupported.
func (w *Watcher) Poll(now time.Time) bool {
	d, err := w.provider.IdleDuration()
	if err != nil {
		if errors.Is(err, ErrIdleUnsupported) {
			w.sink.Degrade(err)
			return false
		}

		// unreadable samples count as activity
		w.logger.Debug("idle sample failed", "error", err)
		w.sink.NotifyActivity(now)
		w.lastPoll = now

		return true
	}

	last := now.Add(-d)

	if w.lastPoll.IsZero() || last.After(w.lastPoll) {
		w.sink.NotifyActivity(last)
	}

	w.lastPoll = now

	return true
}

// Run polls until ctx is cancelled or the provider turns out to be
// unsupported.
func (w *Watcher) Run(ctx context.Context) {
	if !w.Poll(w.clock.Now()) {
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.Poll(w.clock.Now()) {
				return
			}
		}
	}
}
