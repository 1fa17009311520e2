package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ayoisaiah/worklog/internal/config"
	"github.com/ayoisaiah/worklog/internal/osutil"
	"github.com/ayoisaiah/worklog/internal/pathutil"
	"github.com/ayoisaiah/worklog/store"
)

const retryInterval = 200 * time.Millisecond

// openBackend opens the storage backend selected in the configuration.
func openBackend(cfg *config.Config) (store.Backend, error) {
	if cfg.Storage.Backend == config.BackendBolt {
		dbPath := pathutil.DBFilePath()

		err := os.MkdirAll(filepath.Dir(dbPath), osutil.DirPermission)
		if err != nil {
			return nil, err
		}

		return store.NewBoltBackend(dbPath)
	}

	return store.NewFileBackend(pathutil.StoreFilePath(), pathutil.BackupDir())
}

func openManager(cfg *config.Config, logger *slog.Logger) (*store.Manager, error) {
	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	return store.NewManager(
		backend,
		store.WithLogger(logger),
		store.WithSettings(cfg.Settings()),
		store.WithSaveTimeout(cfg.Storage.SaveTimeout),
		store.WithRetries(uint64(cfg.Storage.SaveRetries), retryInterval),
		store.WithBackupInterval(cfg.BackupInterval()),
		store.WithBackupKeep(cfg.Backup.Keep),
	), nil
}
