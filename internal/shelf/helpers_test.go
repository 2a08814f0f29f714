package shelf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

const timeoutForTests = 2 * time.Second

// removeModulesBucket turns a shelf into a plain bbolt file.
func removeModulesBucket(t *testing.T, path string) {
	t.Helper()
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeoutForTests})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket(modulesBucket)
	}))
}
