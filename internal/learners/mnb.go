package learners

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MultinomialNB is a naive Bayes classifier for non-negative count-like features.
type MultinomialNB struct {
	params MNBParams

	classes        []int       // observed labels in ascending order
	classLogPrior  []float64   // per observed label
	featureLogProb [][]float64 // per observed label, per feature
	cols           int
}

// NewMultinomialNB creates an untrained multinomial naive Bayes classifier.
func NewMultinomialNB(params MNBParams) (*MultinomialNB, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MultinomialNB{params: params}, nil
}

func (m *MultinomialNB) Fit(X mat.Matrix, y []int) error {
	rows, cols, classes, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	m.featureLogProb = nil

	counts := make([]int, classes)
	featureCounts := make([][]float64, classes)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		for j, v := range row {
			if v < 0 {
				return fmt.Errorf("negative value %f at row %d column %d", v, i, j)
			}
		}
		label := y[i]
		if featureCounts[label] == nil {
			featureCounts[label] = make([]float64, cols)
		}
		floats.Add(featureCounts[label], row)
		counts[label]++
	}

	alpha := math.Max(m.params.Alpha, 1e-10)
	var observed []int
	var priors []float64
	var logProbs [][]float64
	for label, n := range counts {
		if n == 0 {
			continue
		}
		observed = append(observed, label)
		priors = append(priors, math.Log(float64(n)/float64(rows)))

		fc := featureCounts[label]
		total := floats.Sum(fc) + alpha*float64(cols)
		lp := make([]float64, cols)
		for j, c := range fc {
			lp[j] = math.Log((c + alpha) / total)
		}
		logProbs = append(logProbs, lp)
	}

	m.classes = observed
	m.classLogPrior = priors
	m.featureLogProb = logProbs
	m.cols = cols
	return nil
}

func (m *MultinomialNB) Predict(X mat.Matrix) ([]int, error) {
	if m.featureLogProb == nil {
		return nil, ErrNotFitted
	}
	rows, err := checkPredictInput(X, m.cols)
	if err != nil {
		return nil, err
	}
	row := make([]float64, m.cols)
	joint := make([]float64, len(m.classes))
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		for c := range m.classes {
			joint[c] = m.classLogPrior[c] + floats.Dot(row, m.featureLogProb[c])
		}
		out[i] = m.classes[argmax(joint)]
	}
	return out, nil
}
