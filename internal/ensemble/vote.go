package ensemble

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Tally accumulates vote mass per label for a single row.
type Tally struct {
	mass  []float64
	voted []bool
}

// NewTally returns a tally sized for labels 0..size-1. It grows on demand.
func NewTally(size int) *Tally {
	if size < 0 {
		size = 0
	}
	return &Tally{mass: make([]float64, size), voted: make([]bool, size)}
}

// Add credits mass to label. Negative labels are ignored.
func (t *Tally) Add(label int, mass float64) {
	if label < 0 {
		return
	}
	for label >= len(t.mass) {
		t.mass = append(t.mass, 0)
		t.voted = append(t.voted, false)
	}
	t.mass[label] += mass
	t.voted[label] = true
}

// Winner returns the label with the most mass among labels that received a vote; ties go
// to the smallest label. It returns -1 when nothing was added.
func (t *Tally) Winner() int {
	best := -1
	for label, m := range t.mass {
		if !t.voted[label] {
			continue
		}
		if best < 0 || m > t.mass[best] {
			best = label
		}
	}
	return best
}

// Vote resolves one row of votes. With nil weights every vote counts 1; otherwise
// weights[i] is the mass of votes[i].
func Vote(votes []int, weights []float64) int {
	size := 0
	for _, v := range votes {
		if v+1 > size {
			size = v + 1
		}
	}
	t := NewTally(size)
	for i, v := range votes {
		mass := 1.0
		if weights != nil {
			mass = weights[i]
		}
		t.Add(v, mass)
	}
	return t.Winner()
}

// Predict returns the plurality label for every row of X.
func (e *Ensemble) Predict(X mat.Matrix) ([]int, error) {
	pred, _, err := e.PredictWithVotes(X)
	return pred, err
}

// PredictWithVotes is Predict that also returns each base learner's labels keyed by
// algorithm identifier.
func (e *Ensemble) PredictWithVotes(X mat.Matrix) ([]int, map[string][]int, error) {
	if len(e.slots) == 0 {
		return nil, nil, ErrEmptyEnsemble
	}
	if !e.IsFitted() {
		return nil, nil, ErrNotFitted
	}
	if X == nil {
		return nil, nil, ErrEmptyInput
	}
	rows, _ := X.Dims()
	start := time.Now()

	votes := make([][]int, len(e.slots))
	errs := make([]error, len(e.slots))
	var g errgroup.Group
	g.SetLimit(e.workers())
	for i, s := range e.slots {
		g.Go(func() error {
			pred, err := s.Model.Predict(X)
			if err != nil {
				errs[i] = err
				return nil
			}
			if len(pred) != rows {
				errs[i] = fmt.Errorf("returned %d labels for %d rows", len(pred), rows)
				return nil
			}
			votes[i] = pred
			return nil
		})
	}
	_ = g.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("predict %s: %w", e.slots[i].Algorithm, err)
		}
	}

	// Votes are tallied in identifier order so floating-point sums do not depend on the
	// configured algorithm order.
	var weights []float64
	if e.weighted {
		weights = make([]float64, len(e.voteOrder))
		for k, i := range e.voteOrder {
			weights[k] = e.slots[i].Weight
		}
	}

	out := make([]int, rows)
	row := make([]int, len(e.voteOrder))
	for r := 0; r < rows; r++ {
		for k, i := range e.voteOrder {
			label := votes[i][r]
			if label < 0 {
				return nil, nil, fmt.Errorf("predict %s: %w", e.slots[i].Algorithm, &InvalidLabelError{Index: r, Label: label})
			}
			row[k] = label
		}
		out[r] = Vote(row, weights)
	}

	if e.metrics != nil {
		e.metrics.EnsemblePredictionsAdd(rows)
		e.metrics.EnsemblePredictLatencyObserve(time.Since(start).Seconds())
	}

	byAlgorithm := make(map[string][]int, len(e.slots))
	for i, s := range e.slots {
		byAlgorithm[s.Algorithm] = votes[i]
	}
	return out, byAlgorithm, nil
}
