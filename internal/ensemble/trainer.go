package ensemble

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Fit trains every base learner on (X, y), replacing any earlier training. With weighting
// enabled each slot's weight becomes the mean cross-validated accuracy of a fresh model
// with the same configuration, so every learner is effectively trained folds+1 times.
//
// If the input is invalid or any learner fails, the ensemble is left unfitted. Learner
// failures are reported as a ModelFitError for the lowest failing slot.
func (e *Ensemble) Fit(X mat.Matrix, y []int) error {
	if len(e.slots) == 0 {
		return ErrEmptyEnsemble
	}

	for _, s := range e.slots {
		s.fitted = false
	}
	if err := checkLabeledInput(X, y); err != nil {
		return err
	}

	start := time.Now()
	errs := make([]error, len(e.slots))

	var g errgroup.Group
	g.SetLimit(e.workers())
	for i, s := range e.slots {
		g.Go(func() error {
			errs[i] = e.fitSlot(s, X, y)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		algorithm := e.slots[i].Algorithm
		if e.metrics != nil {
			e.metrics.EnsembleFitFailuresInc(algorithm)
		}
		e.logger.Error().Err(err).Str("algorithm", algorithm).Msg("Base learner fit failed")
		return &ModelFitError{Algorithm: algorithm, Err: err}
	}

	for _, s := range e.slots {
		s.fitted = true
	}
	if e.metrics != nil {
		e.metrics.EnsembleFitsInc()
	}

	rows, cols := X.Dims()
	e.logger.Info().
		Int("rows", rows).
		Int("features", cols).
		Floats64("weights", e.Weights()).
		Dur("duration", time.Since(start)).
		Msg("Ensemble fitted")
	return nil
}

func (e *Ensemble) fitSlot(s *slot, X mat.Matrix, y []int) error {
	start := time.Now()
	if err := s.Model.Fit(X, y); err != nil {
		return err
	}

	weight := 1.0
	s.CVScore = 0
	if e.weighted {
		score, err := e.validator.MeanScore(s.newModel, X, y, e.folds)
		if err != nil {
			return fmt.Errorf("cross-validation failed: %w", err)
		}
		s.CVScore = score
		weight = score
	}
	s.Weight = weight

	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.EnsembleFitLatencyObserve(s.Algorithm, elapsed.Seconds())
		e.metrics.EnsembleWeightSet(s.Algorithm, weight)
	}
	e.logger.Debug().
		Str("algorithm", s.Algorithm).
		Float64("weight", weight).
		Dur("duration", elapsed).
		Msg("Base learner fitted")
	return nil
}

// checkLabeledInput validates X and y for Fit.
func checkLabeledInput(X mat.Matrix, y []int) error {
	rows := 0
	if X != nil {
		rows, _ = X.Dims()
	}
	if rows != len(y) {
		return &DimensionMismatchError{Expected: rows, Actual: len(y)}
	}
	if rows == 0 {
		return ErrEmptyInput
	}
	for i, label := range y {
		if label < 0 {
			return &InvalidLabelError{Index: i, Label: label}
		}
	}
	return nil
}
