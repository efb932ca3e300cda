package main

import (
	"fmt"
	"time"

	"majority-vote/internal/cfg"
	"majority-vote/internal/dataset"
	"majority-vote/internal/ensemble"
	"majority-vote/internal/metrics"
	"majority-vote/internal/storage"

	"github.com/rs/zerolog/log"
)

// runPipeline loads the dataset, fits the ensemble on the training split and evaluates it
// on both splits. The returned record has no ID yet; storage assigns one.
func runPipeline(c cfg.Settings, mw *metrics.MetricsWrapper) (storage.RunRecord, []storage.PredictionRecord, error) {
	start := time.Now()

	ds, err := dataset.LoadCSV(c.DatasetPath, c.LabelColumn)
	if err != nil {
		return storage.RunRecord{}, nil, err
	}
	mw.DatasetRowsSet(ds.Len())

	train, test, err := ds.Split(c.TestRatio, c.SplitSeed)
	if err != nil {
		return storage.RunRecord{}, nil, fmt.Errorf("failed to split dataset: %w", err)
	}
	log.Info().
		Int("train_rows", train.Len()).
		Int("test_rows", test.Len()).
		Float64("test_ratio", c.TestRatio).
		Msg("Dataset split")

	e, err := ensemble.NewWithDependencies(c.EnsembleConfig(), ensemble.Dependencies{Metrics: mw})
	if err != nil {
		return storage.RunRecord{}, nil, fmt.Errorf("failed to build ensemble: %w", err)
	}
	if err := e.Fit(train.X, train.Y); err != nil {
		return storage.RunRecord{}, nil, fmt.Errorf("failed to fit ensemble: %w", err)
	}

	trainAcc, err := e.Score(train.X, train.Y)
	if err != nil {
		return storage.RunRecord{}, nil, fmt.Errorf("failed to score training split: %w", err)
	}
	mw.EvaluationAccuracySet("train", trainAcc)

	pred, votes, err := e.PredictWithVotes(test.X)
	if err != nil {
		return storage.RunRecord{}, nil, fmt.Errorf("failed to predict test split: %w", err)
	}
	testAcc, err := ensemble.Accuracy(pred, test.Y)
	if err != nil {
		return storage.RunRecord{}, nil, err
	}
	mw.EvaluationAccuracySet("test", testAcc)

	predictions, err := predictionRecords(ds.Labels, test.Y, pred, votes)
	if err != nil {
		return storage.RunRecord{}, nil, err
	}

	run := storage.RunRecord{
		Dataset:       ds.Name,
		CreatedAt:     start,
		Algorithms:    e.Algorithms(),
		Weighted:      e.Weighted(),
		Folds:         e.Folds(),
		Slots:         e.Slots(),
		Classes:       ds.Labels.Classes(),
		TrainRows:     train.Len(),
		TestRows:      test.Len(),
		TrainAccuracy: trainAcc,
		TestAccuracy:  testAcc,
		Duration:      time.Since(start),
	}
	return run, predictions, nil
}

func predictionRecords(labels *dataset.LabelEncoder, truth, pred []int, votes map[string][]int) ([]storage.PredictionRecord, error) {
	actual, err := labels.Decode(truth)
	if err != nil {
		return nil, err
	}
	predicted, err := labels.Decode(pred)
	if err != nil {
		return nil, err
	}

	records := make([]storage.PredictionRecord, len(truth))
	for i := range truth {
		rowVotes := make(map[string]int, len(votes))
		for alg, v := range votes {
			rowVotes[alg] = v[i]
		}
		records[i] = storage.PredictionRecord{
			Row:       i,
			Actual:    actual[i],
			Predicted: predicted[i],
			Votes:     rowVotes,
		}
	}
	return records, nil
}
