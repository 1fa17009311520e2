package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayoisaiah/worklog/internal/models"
)

// RecoveryStatus describes where the loaded state came from.
type RecoveryStatus string

const (
	Loaded              RecoveryStatus = "loaded"
	RecoveredFromBackup RecoveryStatus = "recovered_from_backup"
	StartedFresh        RecoveryStatus = "started_fresh"
)

// RecoveryInfo reports the outcome of LoadOrRecover.
type RecoveryInfo struct {
	// LastSavedAt is the time the recovered document was written
	LastSavedAt time.Time
	// Err holds the reason the primary document was not used, if any
	Err    error
	Status RecoveryStatus
	// Source is "primary" or the name of the backup that was used
	Source string
	// Skipped lists backups that could not be read
	Skipped []string
	// Incomplete is set when the document holds a session that was never
	// ended, typically after a crash
	Incomplete bool
}

const primarySource = "primary"

// LoadOrRecover reads the primary document, falling back to the newest
// readable backup and finally to an empty state. It never fails: every
// problem is reported in the returned RecoveryInfo.
func (m *Manager) LoadOrRecover(ctx context.Context) (models.State, RecoveryInfo) {
	var info RecoveryInfo

	st, err := m.load(primarySource, m.backend.ReadPrimary)
	if err == nil {
		info.Status = Loaded
		info.Source = primarySource
	} else {
		if !errors.Is(err, ErrNotFound) {
			info.Err = err

			m.logger.Warn("primary data unusable, trying backups", "error", err)
		}

		st, info = m.recoverFromBackups(ctx, info)
	}

	info.LastSavedAt = st.SavedAt
	info.Incomplete = st.Current != nil

	m.writeMu.Lock()
	m.lastRevision = st.Revision
	m.written = info.Status != StartedFresh
	m.writeMu.Unlock()

	if info.Status != StartedFresh {
		m.setLatest(st)
	}

	m.logger.Info(
		"session data loaded",
		"status", info.Status,
		"source", info.Source,
		"revision", st.Revision,
		"incomplete", info.Incomplete,
	)

	return st, info
}

func (m *Manager) recoverFromBackups(
	ctx context.Context,
	info RecoveryInfo,
) (models.State, RecoveryInfo) {
	backups, err := m.backend.Backups()
	if err != nil {
		m.logger.Warn("could not list backups", "error", err)
	}

	for _, b := range backups {
		if ctx.Err() != nil {
			break
		}

		st, err := m.load(b.Name, func() ([]byte, error) {
			return m.backend.ReadBackup(b.Name)
		})
		if err != nil {
			m.logger.Warn("skipping unreadable backup", "name", b.Name, "error", err)
			info.Skipped = append(info.Skipped, b.Name)

			continue
		}

		info.Status = RecoveredFromBackup
		info.Source = b.Name

		return st, info
	}

	info.Status = StartedFresh

	return models.State{
		Version:  models.DocumentVersion,
		History:  []models.Session{},
		Settings: m.settings,
	}, info
}

func (m *Manager) load(
	source string,
	read func() ([]byte, error),
) (models.State, error) {
	data, err := read()
	if err != nil {
		return models.State{}, err
	}

	st, err := decode(data, m.settings)
	if err != nil {
		return models.State{}, ErrCorruptDataFile.Fmt(source).Wrap(err)
	}

	return st, nil
}

func decode(data []byte, defaults models.Settings) (models.State, error) {
	var st models.State

	if err := json.Unmarshal(data, &st); err != nil {
		return models.State{}, err
	}

	if err := upgradeDocument(&st, defaults); err != nil {
		return models.State{}, err
	}

	if err := st.Validate(); err != nil {
		return models.State{}, err
	}

	return st, nil
}
