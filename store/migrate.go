package store

import (
	"bytes"
	"time"

	"go.etcd.io/bbolt"

	"github.com/ayoisaiah/worklog/internal/models"
	"github.com/ayoisaiah/worklog/internal/timeutil"
)

// migrateBackupKeys rewrites backup keys stored as RFC3339Nano, which do not
// sort chronologically, into the fixed width key format.
func migrateBackupKeys(tx *bbolt.Tx) error {
	bucket := tx.Bucket([]byte(backupBucket))

	cur := bucket.Cursor()

	type rekey struct {
		from, to, value []byte
	}

	var pending []rekey

	for k, v := cur.First(); k != nil; k, v = cur.Next() {
		if _, err := time.Parse(timeutil.KeyFormat, string(k)); err == nil {
			continue
		}

		t, err := time.Parse(time.RFC3339Nano, string(k))
		if err != nil {
			continue
		}

		newKey := timeutil.ToKey(t)
		if bytes.Equal(newKey, k) {
			continue
		}

		pending = append(pending, rekey{
			from:  bytes.Clone(k),
			to:    newKey,
			value: bytes.Clone(v),
		})
	}

	for _, r := range pending {
		err := bucket.Put(r.to, r.value)
		if err != nil {
			return err
		}

		err = bucket.Delete(r.from)
		if err != nil {
			return err
		}
	}

	return nil
}

// upgradeDocument brings a decoded document to the current layout. Documents
// written before versioning carry version 0 and no settings.
func upgradeDocument(st *models.State, defaults models.Settings) error {
	if st.Version > models.DocumentVersion {
		return errUnsupportedVersion.Fmt(st.Version, models.DocumentVersion)
	}

	if st.Version == 0 {
		if st.Settings == (models.Settings{}) {
			st.Settings = defaults
		}

		st.Version = models.DocumentVersion
	}

	if st.History == nil {
		st.History = []models.Session{}
	}

	return nil
}
