package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// PredictionRecord is the ensemble's answer for one held-out row of a run.
type PredictionRecord struct {
	RunID     string         `json:"run_id"`
	Row       int            `json:"row"`
	Actual    string         `json:"actual"`
	Predicted string         `json:"predicted"`
	Votes     map[string]int `json:"votes,omitempty"` // label index voted by each algorithm
}

// Correct reports whether the prediction matched the true label.
func (p PredictionRecord) Correct() bool {
	return p.Actual == p.Predicted
}

// StorePredictions stores the prediction records of a run in one transaction.
func (s *Store) StorePredictions(runID string, records []PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket))
		if err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}

		for _, record := range records {
			record.RunID = runID
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("marshal prediction record: %w", err)
			}
			if err := b.Put(predictionKey(runID, record.Row), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetPredictions returns the prediction records of a run ordered by row.
func (s *Store) GetPredictions(runID string) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		prefix := []byte(runID + "_")

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

func predictionKey(runID string, row int) []byte {
	return []byte(fmt.Sprintf("%s_%010d", runID, row))
}
