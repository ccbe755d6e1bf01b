package history

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/pogolab/stackctl/pkg/types"
)

var (
	// Bucket names
	bucketRuns = []byte("runs")
)

// Store keeps recent operation outcomes in a local bbolt file so the
// dashboard can show what ran and how it went. It is a convenience
// record, not an audit trail: entries beyond the retention window are
// pruned on write.
type Store struct {
	db *bolt.DB
}

// DefaultRetention is how many runs are kept
const DefaultRetention = 50

// Open creates or opens the history database under dataDir
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "stackctl.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRuns, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one finished run and prunes entries beyond the
// retention window
func (s *Store) Append(run *types.RunRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("failed to marshal run: %w", err)
		}

		// Keys sort chronologically: RFC3339 timestamp plus the run id
		// for uniqueness.
		key := run.StartedAt.UTC().Format(time.RFC3339Nano) + "/" + run.ID
		if err := b.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}

		// Prune oldest entries past retention. Keys are collected
		// before deleting: mutating the bucket mid-iteration can make
		// the cursor skip entries.
		excess := b.Stats().KeyN + 1 - DefaultRetention
		if excess > 0 {
			c := b.Cursor()
			stale := make([][]byte, 0, excess)
			for k, _ := c.First(); k != nil && len(stale) < excess; k, _ = c.Next() {
				stale = append(stale, append([]byte(nil), k...))
			}
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Recent returns up to n runs, newest first
func (s *Store) Recent(n int) ([]types.RunRecord, error) {
	var runs []types.RunRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil && len(runs) < n; k, v = c.Prev() {
			var run types.RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("failed to unmarshal run %s: %w", k, err)
			}
			runs = append(runs, run)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}
