// Package report writes human-readable and machine-readable summaries of an ensemble run.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"majority-vote/internal/storage"

	"github.com/rs/zerolog/log"
)

// Reporter generates run reports
type Reporter struct {
	run         storage.RunRecord
	predictions []storage.PredictionRecord
	outputPath  string
}

// NewReporter creates a new reporter
func NewReporter(run storage.RunRecord, predictions []storage.PredictionRecord, outputPath string) *Reporter {
	return &Reporter{
		run:         run,
		predictions: predictions,
		outputPath:  outputPath,
	}
}

// GenerateReport generates all report formats
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}

	if err := r.generateWeightsReport(); err != nil {
		return err
	}

	if err := r.generatePredictionLog(); err != nil {
		return err
	}

	if err := r.generateConfusionReport(); err != nil {
		return err
	}

	if err := r.generateJSONReport(); err != nil {
		return err
	}

	return nil
}

// generateSummary generates a human-readable summary
func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "run_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "ENSEMBLE RUN SUMMARY\n")
	fmt.Fprintf(file, "====================\n\n")

	fmt.Fprintf(file, "Run: %s\n", r.run.ID)
	fmt.Fprintf(file, "Dataset: %s\n", r.run.Dataset)
	fmt.Fprintf(file, "Created: %s\n", r.run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Duration: %s\n\n", r.run.Duration)

	fmt.Fprintf(file, "CONFIGURATION\n")
	fmt.Fprintf(file, "-------------\n")
	fmt.Fprintf(file, "Algorithms: %v\n", r.run.Algorithms)
	fmt.Fprintf(file, "Weighted: %t\n", r.run.Weighted)
	fmt.Fprintf(file, "Folds: %d\n", r.run.Folds)
	fmt.Fprintf(file, "Classes: %v\n\n", r.run.Classes)

	fmt.Fprintf(file, "ACCURACY\n")
	fmt.Fprintf(file, "--------\n")
	fmt.Fprintf(file, "Train: %.2f%% (%d rows)\n", r.run.TrainAccuracy*100, r.run.TrainRows)
	fmt.Fprintf(file, "Test: %.2f%% (%d rows)\n\n", r.run.TestAccuracy*100, r.run.TestRows)

	fmt.Fprintf(file, "BASE LEARNERS\n")
	fmt.Fprintf(file, "-------------\n")
	for _, s := range r.run.Slots {
		fmt.Fprintf(file, "%s: weight %.4f, cv score %.4f\n", s.Algorithm, s.Weight, s.CVScore)
	}

	classStats := r.calculateClassStats()
	if len(classStats) > 0 {
		fmt.Fprintf(file, "\nPERFORMANCE BY CLASS\n")
		fmt.Fprintf(file, "--------------------\n")
		for _, stats := range classStats {
			fmt.Fprintf(file, "%s: %d rows, %.2f%% recall\n", stats.Class, stats.Count, stats.Recall*100)
		}
	}

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

// generateWeightsReport writes one CSV row per base learner
func (r *Reporter) generateWeightsReport() error {
	csvPath := filepath.Join(r.outputPath, "weights.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create weights report: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Algorithm", "Weight", "CV Score", "Fitted"}); err != nil {
		return err
	}
	for _, s := range r.run.Slots {
		record := []string{
			s.Algorithm,
			fmt.Sprintf("%.6f", s.Weight),
			fmt.Sprintf("%.6f", s.CVScore),
			fmt.Sprintf("%t", s.Fitted),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Weights report generated")
	return nil
}

// generatePredictionLog generates a CSV log of every held-out prediction
func (r *Reporter) generatePredictionLog() error {
	csvPath := filepath.Join(r.outputPath, "predictions.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create prediction log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := append([]string{"Row", "Actual", "Predicted", "Correct"}, r.run.Algorithms...)
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range r.predictions {
		record := []string{
			fmt.Sprintf("%d", p.Row),
			p.Actual,
			p.Predicted,
			fmt.Sprintf("%t", p.Correct()),
		}
		for _, alg := range r.run.Algorithms {
			record = append(record, r.className(p.Votes[alg]))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Prediction log generated")
	return nil
}

// generateConfusionReport writes the confusion matrix, actual classes as rows
func (r *Reporter) generateConfusionReport() error {
	csvPath := filepath.Join(r.outputPath, "confusion.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create confusion report: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	classes, matrix := r.calculateConfusion()
	if err := writer.Write(append([]string{"Actual \\ Predicted"}, classes...)); err != nil {
		return err
	}
	for i, class := range classes {
		record := []string{class}
		for _, count := range matrix[i] {
			record = append(record, fmt.Sprintf("%d", count))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Confusion report generated")
	return nil
}

// generateJSONReport generates a JSON report with all data
func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "run.json")

	report := map[string]interface{}{
		"run":          r.run,
		"class_stats":  r.calculateClassStats(),
		"predictions":  r.predictions,
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// ClassStats holds held-out statistics for one true class
type ClassStats struct {
	Class   string  `json:"class"`
	Count   int     `json:"count"`
	Correct int     `json:"correct"`
	Recall  float64 `json:"recall"`
}

// calculateClassStats groups predictions by actual class, sorted by class name
func (r *Reporter) calculateClassStats() []ClassStats {
	byClass := make(map[string]*ClassStats)
	for _, p := range r.predictions {
		s, ok := byClass[p.Actual]
		if !ok {
			s = &ClassStats{Class: p.Actual}
			byClass[p.Actual] = s
		}
		s.Count++
		if p.Correct() {
			s.Correct++
		}
	}

	stats := make([]ClassStats, 0, len(byClass))
	for _, s := range byClass {
		s.Recall = float64(s.Correct) / float64(s.Count)
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Class < stats[j].Class })
	return stats
}

// calculateConfusion counts predictions per (actual, predicted) pair. Classes are the
// run's classes followed by any other label seen in the predictions.
func (r *Reporter) calculateConfusion() ([]string, [][]int) {
	index := make(map[string]int)
	var classes []string
	add := func(c string) {
		if _, ok := index[c]; !ok {
			index[c] = len(classes)
			classes = append(classes, c)
		}
	}
	for _, c := range r.run.Classes {
		add(c)
	}
	for _, p := range r.predictions {
		add(p.Actual)
		add(p.Predicted)
	}

	matrix := make([][]int, len(classes))
	for i := range matrix {
		matrix[i] = make([]int, len(classes))
	}
	for _, p := range r.predictions {
		matrix[index[p.Actual]][index[p.Predicted]]++
	}
	return classes, matrix
}

func (r *Reporter) className(idx int) string {
	if idx >= 0 && idx < len(r.run.Classes) {
		return r.run.Classes[idx]
	}
	return fmt.Sprintf("%d", idx)
}

// PrintSummary prints a summary to w
func (r *Reporter) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n=== ENSEMBLE RUN ===")
	fmt.Fprintf(w, "Dataset: %s\n", r.run.Dataset)
	fmt.Fprintf(w, "Algorithms: %v (weighted: %t)\n", r.run.Algorithms, r.run.Weighted)
	for _, s := range r.run.Slots {
		fmt.Fprintf(w, "  %-4s weight %.4f\n", s.Algorithm, s.Weight)
	}
	fmt.Fprintf(w, "Train Accuracy: %.2f%%\n", r.run.TrainAccuracy*100)
	fmt.Fprintf(w, "Test Accuracy: %.2f%%\n", r.run.TestAccuracy*100)
	fmt.Fprintf(w, "Duration: %s\n", r.run.Duration)
	fmt.Fprintln(w, "====================")
}
