// Package crossval estimates classifier accuracy with stratified k-fold cross-validation.
package crossval

import (
	"errors"
	"fmt"
	"sort"

	"majority-vote/internal/dataset"
	"majority-vote/internal/learners"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrTooFewSamples = errors.New("fewer samples than folds")
	ErrTooFewMembers = errors.New("class has fewer members than folds")
)

// Fold holds the row indices of one train/test partition.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold deals the rows of every class round-robin across folds, in row order,
// continuing the rotation from one class to the next so fold sizes stay balanced. It
// never shuffles. Every class must have at least folds members.
func StratifiedKFold(y []int, folds int) ([]Fold, error) {
	if folds < 2 {
		return nil, fmt.Errorf("folds must be at least 2, got %d", folds)
	}
	if len(y) < folds {
		return nil, fmt.Errorf("%w: %d samples, %d folds", ErrTooFewSamples, len(y), folds)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	assignment := make([]int, len(y))
	offset := 0
	for _, label := range classes {
		members := byClass[label]
		if len(members) < folds {
			return nil, fmt.Errorf("%w: label %d has %d members, %d folds", ErrTooFewMembers, label, len(members), folds)
		}
		for j, row := range members {
			assignment[row] = (offset + j) % folds
		}
		offset += len(members)
	}

	out := make([]Fold, folds)
	for row, f := range assignment {
		for k := range out {
			if k == f {
				out[k].Test = append(out[k].Test, row)
			} else {
				out[k].Train = append(out[k].Train, row)
			}
		}
	}
	return out, nil
}

// Validator scores a model configuration by stratified k-fold cross-validation. Each fold
// trains a fresh model from the constructor, so no state leaks between folds or from any
// model the caller has already fitted.
type Validator struct{}

// MeanScore returns the mean fold accuracy.
func (Validator) MeanScore(newModel func() (learners.Classifier, error), X mat.Matrix, y []int, folds int) (float64, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return 0, fmt.Errorf("expected %d labels, got %d", rows, len(y))
	}
	splits, err := StratifiedKFold(y, folds)
	if err != nil {
		return 0, err
	}

	scores := make([]float64, len(splits))
	for k, fold := range splits {
		model, err := newModel()
		if err != nil {
			return 0, fmt.Errorf("fold %d: failed to build model: %w", k, err)
		}
		if err := model.Fit(dataset.Rows(X, fold.Train), pick(y, fold.Train)); err != nil {
			return 0, fmt.Errorf("fold %d: fit failed: %w", k, err)
		}
		pred, err := model.Predict(dataset.Rows(X, fold.Test))
		if err != nil {
			return 0, fmt.Errorf("fold %d: predict failed: %w", k, err)
		}
		truth := pick(y, fold.Test)
		correct := 0
		for i := range truth {
			if pred[i] == truth[i] {
				correct++
			}
		}
		scores[k] = float64(correct) / float64(len(truth))
	}

	mean := stat.Mean(scores, nil)
	log.Debug().
		Int("folds", folds).
		Floats64("fold_scores", scores).
		Float64("mean_score", mean).
		Msg("Cross-validation completed")
	return mean, nil
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
