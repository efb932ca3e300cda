package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"majority-vote/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunExport is a stored run together with its test-set predictions.
type RunExport struct {
	Run         storage.RunRecord          `json:"run"`
	Predictions []storage.PredictionRecord `json:"predictions,omitempty"`
}

func main() {
	var (
		dataPath    = flag.String("data", "./data", "Data directory path")
		datasetName = flag.String("dataset", "", "Dataset name to inspect")
		days        = flag.Int("days", 30, "Number of days to look back (0 for all)")
		outputPath  = flag.String("output", "", "Write runs and predictions as JSON to this file")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *datasetName == "" {
		log.Fatal().Msg("-dataset is required")
	}

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	end := time.Now()
	start := time.Unix(0, 0)
	if *days > 0 {
		start = end.AddDate(0, 0, -*days)
	}

	runs, err := store.GetRuns(*datasetName, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch runs")
	}

	printRuns(os.Stdout, runs)

	if *outputPath != "" {
		exports, err := collectExports(store, runs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to collect predictions")
		}
		if err := writeJSON(*outputPath, exports); err != nil {
			log.Fatal().Err(err).Msg("Failed to write export")
		}
		log.Info().Int("runs", len(exports)).Str("file", *outputPath).Msg("Runs exported")
	}
}

func printRuns(w io.Writer, runs []storage.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}
	fmt.Fprintf(w, "%-36s  %-19s  %-8s  %9s  %9s\n", "ID", "Created", "Weighted", "Train Acc", "Test Acc")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-19s  %-8t  %8.2f%%  %8.2f%%\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Weighted,
			r.TrainAccuracy*100, r.TestAccuracy*100)
		for _, s := range r.Slots {
			fmt.Fprintf(w, "    %-6s weight=%.4f cv=%.4f\n", s.Algorithm, s.Weight, s.CVScore)
		}
	}
}

func collectExports(store *storage.Store, runs []storage.RunRecord) ([]RunExport, error) {
	exports := make([]RunExport, 0, len(runs))
	for _, r := range runs {
		preds, err := store.GetPredictions(r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load predictions for %s: %w", r.ID, err)
		}
		exports = append(exports, RunExport{Run: r, Predictions: preds})
	}
	return exports, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
