// Package store persists worklog sessions: every accepted transition is written
// through to a primary document, periodic backups are kept alongside it, and
// the latest readable copy is recovered on startup.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ayoisaiah/worklog/internal/clock"
	"github.com/ayoisaiah/worklog/internal/models"
)

const (
	defaultSaveTimeout    = 5 * time.Second
	defaultSaveRetries    = 3
	defaultRetryInterval  = 200 * time.Millisecond
	defaultBackupInterval = 300 * time.Second
	defaultBackupKeep     = 48
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used to stamp documents and backups.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithSettings sets the settings block stored with every document.
func WithSettings(s models.Settings) Option {
	return func(m *Manager) {
		m.settings = s
	}
}

// WithSaveTimeout bounds each write attempt.
func WithSaveTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.saveTimeout = d
		}
	}
}

// WithRetries sets how many times a failed write is retried.
func WithRetries(n uint64, interval time.Duration) Option {
	return func(m *Manager) {
		m.retries = n

		if interval > 0 {
			m.retryInterval = interval
		}
	}
}

// WithBackupInterval sets the period between automatic backups.
func WithBackupInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.backupInterval = d
		}
	}
}

// WithBackupKeep sets how many backups are retained. Zero keeps all of them.
func WithBackupKeep(n int) Option {
	return func(m *Manager) {
		m.keep = n
	}
}

// Manager writes session snapshots through to a Backend.
type Manager struct {
	backend        Backend
	clock          clock.Clock
	logger         *slog.Logger
	latest         *models.State
	stopCh         chan struct{}
	done           chan struct{}
	settings       models.Settings
	saveTimeout    time.Duration
	retryInterval  time.Duration
	backupInterval time.Duration
	retries        uint64
	lastRevision   uint64
	backupRevision uint64
	keep           int
	writeMu        sync.Mutex
	mu             sync.Mutex
	written        bool
	backedUp       bool
	running        bool
}

// NewManager returns a Manager writing to backend.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:        backend,
		clock:          clock.Real{},
		logger:         slog.Default(),
		settings:       models.DefaultSettings(),
		saveTimeout:    defaultSaveTimeout,
		retries:        defaultSaveRetries,
		retryInterval:  defaultRetryInterval,
		backupInterval: defaultBackupInterval,
		keep:           defaultBackupKeep,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Backend returns the underlying storage backend.
func (m *Manager) Backend() Backend {
	return m.backend
}

// SaveNow stamps st and writes it as the primary document. Each attempt is
// bounded by the save timeout and failed attempts are retried with
// exponential backoff. A snapshot older than the last one written is skipped.
func (m *Manager) SaveNow(ctx context.Context, st models.State) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.written && st.Revision < m.lastRevision {
		m.logger.Debug(
			"skipping stale snapshot",
			"revision", st.Revision,
			"last_written", m.lastRevision,
		)

		return nil
	}

	st.SavedAt = m.clock.Now()
	st.Settings = m.settings
	st.Version = models.DocumentVersion

	m.setLatest(st)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return ErrPersistenceWrite.Wrap(err)
	}

	attempt := 0

	op := func() error {
		attempt++

		err := m.writeOnce(ctx, data)
		if err != nil {
			m.logger.Debug(
				"write attempt failed",
				"attempt", attempt,
				"revision", st.Revision,
				"error", err,
			)
		}

		return err
	}

	err = backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(m.newBackOff(), m.retries),
		ctx,
	))
	if err != nil {
		return ErrPersistenceWrite.Wrap(err)
	}

	m.lastRevision = st.Revision
	m.written = true

	return nil
}

func (m *Manager) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.retryInterval
	b.MaxInterval = 4 * m.retryInterval
	b.MaxElapsedTime = 0

	return b
}

func (m *Manager) writeOnce(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.saveTimeout)
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- m.backend.WritePrimary(ctx, data)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) setLatest(st models.State) {
	m.mu.Lock()
	m.latest = &st
	m.mu.Unlock()
}

// Latest returns the most recent snapshot handed to the manager.
func (m *Manager) Latest() (models.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.latest == nil {
		return models.State{}, false
	}

	return *m.latest, true
}

// Backup writes the latest snapshot as a timestamped backup and prunes old
// ones. It returns an empty name when there is nothing new to back up. The
// primary document is never touched.
func (m *Manager) Backup(ctx context.Context) (string, error) {
	m.mu.Lock()

	if m.latest == nil || (m.backedUp && m.latest.Revision == m.backupRevision) {
		m.mu.Unlock()
		return "", nil
	}

	st := *m.latest
	m.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, m.saveTimeout)
	defer cancel()

	name, err := m.backend.WriteBackup(ctx, m.clock.Now(), data)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.backupRevision = st.Revision
	m.backedUp = true
	m.mu.Unlock()

	if err := m.backend.PruneBackups(m.keep); err != nil {
		m.logger.Warn("could not prune old backups", "error", err)
	}

	m.logger.Info("backup written", "name", name, "revision", st.Revision)

	return name, nil
}

// Start launches the periodic backup loop.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(m.stopCh, m.done)
}

// Stop ends the backup loop and waits for an in-flight backup to finish.
func (m *Manager) Stop() {
	m.mu.Lock()

	if !m.running {
		m.mu.Unlock()
		return
	}

	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
}

func (m *Manager) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.backupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := m.Backup(context.Background()); err != nil {
				m.logger.Warn("backup failed", "error", err)
			}
		}
	}
}

// Close stops the backup loop and closes the backend.
func (m *Manager) Close() error {
	m.Stop()

	return m.backend.Close()
}
