package learners

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SVC is a one-vs-rest linear support-vector classifier trained with the Pegasos
// stochastic sub-gradient method on the hinge loss. Features are standardized internally
// and a constant bias feature is appended to every row.
type SVC struct {
	params SVCParams

	scaler  *scaler
	weights [][]float64 // one weight vector per label, bias last
	cols    int
}

// NewSVC creates an untrained support-vector classifier.
func NewSVC(params SVCParams) (*SVC, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &SVC{params: params}, nil
}

func (s *SVC) Fit(X mat.Matrix, y []int) error {
	rows, cols, classes, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	s.scaler = nil
	s.weights = nil

	sc := fitScaler(X)
	Z := sc.transform(X)
	samples := make([][]float64, rows)
	for i := range samples {
		row := make([]float64, cols+1)
		mat.Row(row[:cols], i, Z)
		row[cols] = 1
		samples[i] = row
	}

	present := make([]bool, classes)
	for _, label := range y {
		present[label] = true
	}

	lambda := 1.0 / (s.params.C * float64(rows))
	radius := 1.0 / math.Sqrt(lambda)
	rng := rand.New(rand.NewSource(s.params.Seed))

	weights := make([][]float64, classes)
	for k := 0; k < classes; k++ {
		w := make([]float64, cols+1)
		weights[k] = w
		if !present[k] {
			// Labels absent from training never win.
			w[cols] = math.Inf(-1)
			continue
		}
		t := 0
		for epoch := 0; epoch < s.params.Epochs; epoch++ {
			for _, i := range rng.Perm(rows) {
				t++
				eta := 1.0 / (lambda * float64(t))
				target := -1.0
				if y[i] == k {
					target = 1.0
				}
				margin := target * floats.Dot(w, samples[i])
				floats.Scale(1-eta*lambda, w)
				if margin < 1 {
					floats.AddScaled(w, eta*target, samples[i])
				}
				if norm := floats.Norm(w, 2); norm > radius {
					floats.Scale(radius/norm, w)
				}
			}
		}
	}

	s.scaler = sc
	s.weights = weights
	s.cols = cols
	return nil
}

func (s *SVC) Predict(X mat.Matrix) ([]int, error) {
	if s.weights == nil {
		return nil, ErrNotFitted
	}
	rows, err := checkPredictInput(X, s.cols)
	if err != nil {
		return nil, err
	}
	Z := s.scaler.transform(X)
	row := make([]float64, s.cols+1)
	scores := make([]float64, len(s.weights))
	out := make([]int, rows)
	for i := 0; i < rows; i++ {
		mat.Row(row[:s.cols], i, Z)
		row[s.cols] = 1
		for k, w := range s.weights {
			if math.IsInf(w[s.cols], -1) {
				scores[k] = math.Inf(-1)
				continue
			}
			scores[k] = floats.Dot(w, row)
		}
		out[i] = argmax(scores)
	}
	return out, nil
}
