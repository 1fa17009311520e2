package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ayoisaiah/worklog/internal/osutil"
)

const (
	backupPrefix = "worklog-"
	backupExt    = ".json"
	// backupStamp is fixed width and free of path separators and colons
	backupStamp = "20060102T150405.000000000Z"
)

// FileBackend stores the primary document as a JSON file and each backup as
// a separate file in a backup directory.
type FileBackend struct {
	mu        sync.Mutex
	path      string
	backupDir string
}

// NewFileBackend creates the parent directories of path and backupDir.
func NewFileBackend(path, backupDir string) (*FileBackend, error) {
	for _, dir := range []string{filepath.Dir(path), backupDir} {
		if err := os.MkdirAll(dir, osutil.DirPermission); err != nil {
			return nil, err
		}
	}

	return &FileBackend{
		path:      path,
		backupDir: backupDir,
	}, nil
}

func (f *FileBackend) WritePrimary(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return writeAtomic(ctx, f.path, data)
}

func (f *FileBackend) ReadPrimary() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return readFile(f.path)
}

func (f *FileBackend) WriteBackup(
	ctx context.Context,
	at time.Time,
	data []byte,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := backupPrefix + at.UTC().Format(backupStamp) + backupExt

	err := writeAtomic(ctx, filepath.Join(f.backupDir, name), data)
	if err != nil {
		return "", err
	}

	return name, nil
}

func (f *FileBackend) Backups() ([]Backup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.backupsLocked()
}

func (f *FileBackend) backupsLocked() ([]Backup, error) {
	entries, err := os.ReadDir(f.backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	var backups []Backup

	for _, e := range entries {
		name := e.Name()

		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) ||
			!strings.HasSuffix(name, backupExt) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupExt)

		t, err := time.Parse(backupStamp, stamp)
		if err != nil {
			continue
		}

		backups = append(backups, Backup{Name: name, Time: t})
	}

	slices.SortFunc(backups, func(a, b Backup) int {
		return strings.Compare(b.Name, a.Name)
	})

	return backups, nil
}

func (f *FileBackend) ReadBackup(name string) ([]byte, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, errInvalidBackupName.Fmt(name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return readFile(filepath.Join(f.backupDir, name))
}

func (f *FileBackend) PruneBackups(keep int) error {
	if keep <= 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	backups, err := f.backupsLocked()
	if err != nil || len(backups) <= keep {
		return err
	}

	var errs []error

	for _, b := range backups[keep:] {
		err := os.Remove(filepath.Join(f.backupDir, b.Name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f *FileBackend) Close() error {
	return nil
}

func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound.Wrap(err)
		}

		return nil, err
	}

	return b, nil
}

// writeAtomic writes data to a temporary file in the destination directory,
// syncs it and renames it over path. The rename is skipped once ctx is done.
func writeAtomic(ctx context.Context, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}

	if err = os.Chmod(tmp.Name(), osutil.FilePermission); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
