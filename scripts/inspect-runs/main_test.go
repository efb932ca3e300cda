package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"majority-vote/internal/ensemble"
	"majority-vote/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Equal(t, "No runs found.\n", buf.String())

	buf.Reset()
	printRuns(&buf, []storage.RunRecord{{
		ID:           "run-1",
		Weighted:     true,
		TestAccuracy: 0.9,
		Slots:        []ensemble.SlotInfo{{Algorithm: "knn", Weight: 0.95, CVScore: 0.95, Fitted: true}},
	}})
	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "90.00%")
	assert.Contains(t, out, "knn    weight=0.9500")
}

func TestCollectExports(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	run := &storage.RunRecord{Dataset: "iris", Classes: []string{"a", "b"}}
	require.NoError(t, store.StoreRun(run))
	require.NoError(t, store.StorePredictions(run.ID, []storage.PredictionRecord{
		{Row: 0, Actual: "a", Predicted: "a"},
		{Row: 1, Actual: "b", Predicted: "a"},
	}))

	exports, err := collectExports(store, []storage.RunRecord{*run})
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Len(t, exports[0].Predictions, 2)

	path := filepath.Join(t.TempDir(), "runs.json")
	require.NoError(t, writeJSON(path, exports))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []RunExport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, run.ID, decoded[0].Run.ID)
}
