package ensemble

import "gonum.org/v1/gonum/mat"

// Score returns the fraction of rows of X whose predicted label equals y.
func (e *Ensemble) Score(X mat.Matrix, y []int) (float64, error) {
	rows := 0
	if X != nil {
		rows, _ = X.Dims()
	}
	if rows != len(y) {
		return 0, &DimensionMismatchError{Expected: rows, Actual: len(y)}
	}
	if len(y) == 0 {
		return 0, ErrEmptyInput
	}

	pred, err := e.Predict(X)
	if err != nil {
		return 0, err
	}
	acc, err := Accuracy(pred, y)
	if err != nil {
		return 0, err
	}

	if e.metrics != nil {
		e.metrics.EnsembleAccuracyObserve(acc)
	}
	e.logger.Debug().Int("rows", rows).Float64("accuracy", acc).Msg("Ensemble scored")
	return acc, nil
}

// Accuracy returns the share of positions where pred and truth agree.
func Accuracy(pred, truth []int) (float64, error) {
	if len(pred) != len(truth) {
		return 0, &DimensionMismatchError{Expected: len(pred), Actual: len(truth)}
	}
	if len(truth) == 0 {
		return 0, ErrEmptyInput
	}
	correct := 0
	for i := range truth {
		if pred[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth)), nil
}
