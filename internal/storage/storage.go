// Package storage provides persistent run history for the majority-vote ensemble.
// It uses BoltDB as the underlying storage engine to store one record per training run
// plus the per-row predictions made on the held-out test set.
//
// The package provides thread-safe operations for storing and retrieving runs with
// efficient per-dataset time-range queries and automatic bucket management.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"majority-vote/internal/ensemble"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	runsBucket   = "runs"    // Bucket name for run records keyed by dataset and time
	runIDsBucket = "run_ids" // Bucket name mapping run IDs to run keys
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = errors.New("run not found")

// RunRecord describes one fit-and-evaluate run.
type RunRecord struct {
	ID            string              `json:"id"`
	Dataset       string              `json:"dataset"`
	CreatedAt     time.Time           `json:"created_at"`
	Algorithms    []string            `json:"algorithms"`
	Weighted      bool                `json:"weighted"`
	Folds         int                 `json:"folds"`
	Slots         []ensemble.SlotInfo `json:"slots"`
	Classes       []string            `json:"classes"`
	TrainRows     int                 `json:"train_rows"`
	TestRows      int                 `json:"test_rows"`
	TrainAccuracy float64             `json:"train_accuracy"`
	TestAccuracy  float64             `json:"test_accuracy"`
	Duration      time.Duration       `json:"duration"`
}

// Store provides persistent storage for run history using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "majority-vote.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(runIDsBucket)); err != nil {
			return fmt.Errorf("create run ids bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// StoreRun stores a run record. A missing ID is filled with a random UUID and a zero
// CreatedAt with the current time; both are written back to run.
func (s *Store) StoreRun(run *RunRecord) error {
	if run.Dataset == "" {
		return fmt.Errorf("run dataset name is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		runs := tx.Bucket([]byte(runsBucket))
		ids := tx.Bucket([]byte(runIDsBucket))

		if ids.Get([]byte(run.ID)) != nil {
			return fmt.Errorf("run %s already exists", run.ID)
		}

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}

		key := runKey(run.Dataset, run.CreatedAt)
		if err := runs.Put(key, data); err != nil {
			return err
		}
		return ids.Put([]byte(run.ID), key)
	})
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(id string) (RunRecord, error) {
	var run RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket([]byte(runIDsBucket)).Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		data := tx.Bucket([]byte(runsBucket)).Get(key)
		if data == nil {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return json.Unmarshal(data, &run)
	})
	return run, err
}

// GetRuns retrieves runs for a dataset created within a time range, oldest first.
// The time range is inclusive of both start and end times.
func (s *Store) GetRuns(dataset string, start, end time.Time) ([]RunRecord, error) {
	var runs []RunRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()

		prefix := []byte(dataset + "_")
		startKey := runKey(dataset, start)
		endKey := runKey(dataset, end)

		for k, v := c.Seek(startKey); k != nil && compareKeys(k, endKey) <= 0; k, v = c.Next() {
			if !hasPrefix(k, prefix) {
				continue
			}

			var run RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, run)
		}
		return nil
	})

	return runs, err
}

// runKey builds "<dataset>_<unixnano>" with the timestamp zero-padded so keys sort by time.
func runKey(dataset string, ts time.Time) []byte {
	return []byte(fmt.Sprintf("%s_%020d", dataset, ts.UnixNano()))
}

func hasPrefix(data, prefix []byte) bool {
	return bytes.HasPrefix(data, prefix)
}

func compareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
