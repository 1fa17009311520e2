package store

import (
	"bytes"
	"context"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/ayoisaiah/worklog/internal/osutil"
	"github.com/ayoisaiah/worklog/internal/timeutil"
)

const (
	primaryBucket = "primary"
	backupBucket  = "backups"
	primaryKey    = "state"
)

// BoltBackend stores the primary document and its backups in a BoltDB
// database. Every write is a single bolt transaction.
type BoltBackend struct {
	db *bolt.DB
}

// openDB creates or opens a database and locks it.
func openDB(pathToDB string) (*bolt.DB, error) {
	db, err := bolt.Open(
		pathToDB,
		osutil.FilePermission,
		&bolt.Options{Timeout: 1 * time.Second},
	)
	if err != nil {
		// another process holds the file lock
		if errors.Is(err, berrors.ErrTimeout) {
			return nil, errWorklogRunning
		}

		return nil, err
	}

	return db, nil
}

// NewBoltBackend opens the database at dbPath, creating the buckets if they
// do not exist already.
func NewBoltBackend(dbPath string) (*BoltBackend, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err = tx.CreateBucketIfNotExists([]byte(primaryBucket))
		if err != nil {
			return err
		}

		_, err = tx.CreateBucketIfNotExists([]byte(backupBucket))
		if err != nil {
			return err
		}

		return migrateBackupKeys(tx)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltBackend{db}, nil
}

func (c *BoltBackend) WritePrimary(ctx context.Context, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		return tx.Bucket([]byte(primaryBucket)).Put([]byte(primaryKey), data)
	})
}

func (c *BoltBackend) ReadPrimary() ([]byte, error) {
	return c.get(primaryBucket, []byte(primaryKey))
}

func (c *BoltBackend) WriteBackup(
	ctx context.Context,
	at time.Time,
	data []byte,
) (string, error) {
	key := timeutil.ToKey(at)

	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		return tx.Bucket([]byte(backupBucket)).Put(key, data)
	})
	if err != nil {
		return "", err
	}

	return string(key), nil
}

func (c *BoltBackend) Backups() ([]Backup, error) {
	var backups []Backup

	err := c.db.View(func(tx *bolt.Tx) error {
		cur := tx.Bucket([]byte(backupBucket)).Cursor()

		for k, _ := cur.Last(); k != nil; k, _ = cur.Prev() {
			t, err := time.Parse(timeutil.KeyFormat, string(k))
			if err != nil {
				continue
			}

			backups = append(backups, Backup{Name: string(k), Time: t})
		}

		return nil
	})

	return backups, err
}

func (c *BoltBackend) ReadBackup(name string) ([]byte, error) {
	if name == "" {
		return nil, errInvalidBackupName.Fmt(name)
	}

	return c.get(backupBucket, []byte(name))
}

func (c *BoltBackend) PruneBackups(keep int) error {
	if keep <= 0 {
		return nil
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(backupBucket))
		cur := b.Cursor()

		var stale [][]byte

		n := 0

		for k, _ := cur.Last(); k != nil; k, _ = cur.Prev() {
			n++

			if n > keep {
				stale = append(stale, bytes.Clone(k))
			}
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
}

func (c *BoltBackend) Close() error {
	return c.db.Close()
}

// get copies the value out of the transaction, since bolt values are only
// valid while it is open.
func (c *BoltBackend) get(bucket string, key []byte) ([]byte, error) {
	var value []byte

	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucket)).Get(key)
		if v == nil {
			return ErrNotFound
		}

		value = bytes.Clone(v)

		return nil
	})

	return value, err
}
