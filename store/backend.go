package store

import (
	"context"
	"time"
)

// Backup identifies a timestamped backup snapshot.
type Backup struct {
	Time time.Time
	Name string
}

// Backend provides atomic write and read primitives for the primary document
// and its backups. ReadPrimary and ReadBackup return ErrNotFound when there is
// nothing stored under the requested name.
type Backend interface {
	// WritePrimary atomically replaces the primary document. Nothing is
	// written if ctx is done before the write is committed.
	WritePrimary(ctx context.Context, data []byte) error
	ReadPrimary() ([]byte, error)
	// WriteBackup stores data as a backup taken at the given time and returns
	// its name
	WriteBackup(ctx context.Context, at time.Time, data []byte) (string, error)
	// Backups lists the stored backups, newest first
	Backups() ([]Backup, error)
	ReadBackup(name string) ([]byte, error)
	// PruneBackups deletes all but the newest keep backups
	PruneBackups(keep int) error
	Close() error
}
