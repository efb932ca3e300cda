// Package learners provides the base classification models used by the voting ensemble.
// Every model implements the Classifier capability interface and is configured through a
// typed parameter struct that can be decoded from a loosely typed configuration map.
//
// Supported families: linear support-vector machine (svm), k-nearest neighbors (knn),
// multinomial naive Bayes (mnb), random forest (rf) and multi-layer perceptron (mlp).
package learners

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned by Predict when Fit has not completed successfully.
	ErrNotFitted = errors.New("classifier is not fitted")

	// ErrFeatureMismatch is returned when prediction input has a different column count
	// than the training matrix.
	ErrFeatureMismatch = errors.New("feature count does not match training data")
)

//go:generate mockgen -source=classifier.go -destination=../ensemble/mock_classifier_test.go -package=ensemble

// Classifier is the capability set every base learner exposes to the ensemble.
type Classifier interface {
	// Fit trains the model on an n×d feature matrix and n non-negative integer labels.
	// Calling Fit again discards any previously learned state.
	Fit(X mat.Matrix, y []int) error

	// Predict returns one label per row of X.
	Predict(X mat.Matrix) ([]int, error)
}

// checkTrainingSet validates the shape of a training set and returns its dimensions and
// the size of the label space (max label + 1).
func checkTrainingSet(X mat.Matrix, y []int) (rows, cols, classes int, err error) {
	if X == nil {
		return 0, 0, 0, fmt.Errorf("feature matrix is nil")
	}
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, 0, fmt.Errorf("empty training set: %dx%d", rows, cols)
	}
	if rows != len(y) {
		return 0, 0, 0, fmt.Errorf("expected %d labels, got %d", rows, len(y))
	}
	for i, label := range y {
		if label < 0 {
			return 0, 0, 0, fmt.Errorf("label at row %d is negative: %d", i, label)
		}
		if label+1 > classes {
			classes = label + 1
		}
	}
	return rows, cols, classes, nil
}

// checkPredictInput verifies X can be scored by a model trained on cols features.
func checkPredictInput(X mat.Matrix, cols int) (int, error) {
	if X == nil {
		return 0, fmt.Errorf("feature matrix is nil")
	}
	r, c := X.Dims()
	if c != cols {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrFeatureMismatch, cols, c)
	}
	return r, nil
}

// argmax returns the index of the largest value, preferring the lowest index on ties.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// scaler standardizes columns to zero mean and unit variance.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(X mat.Matrix) *scaler {
	rows, cols := X.Dims()
	s := &scaler{mean: make([]float64, cols), std: make([]float64, cols)}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, X)
		m, sd := stat.MeanStdDev(col, nil)
		if !(sd > 0) {
			sd = 1
		}
		s.mean[j] = m
		s.std[j] = sd
	}
	return s
}

func (s *scaler) transform(X mat.Matrix) *mat.Dense {
	rows, cols := X.Dims()
	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - s.mean[j]) / s.std[j]
	}, X)
	return out
}
