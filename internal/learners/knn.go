package learners

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KNeighbors is a brute-force k-nearest-neighbors classifier.
type KNeighbors struct {
	params KNNParams

	samples [][]float64
	labels  []int
	classes int
	cols    int
}

// NewKNeighbors creates an untrained nearest-neighbor classifier.
func NewKNeighbors(params KNNParams) (*KNeighbors, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &KNeighbors{params: params}, nil
}

func (k *KNeighbors) Fit(X mat.Matrix, y []int) error {
	rows, cols, classes, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	k.samples = nil
	if k.params.NNeighbors > rows {
		return fmt.Errorf("n_neighbors %d exceeds training samples %d", k.params.NNeighbors, rows)
	}

	samples := make([][]float64, rows)
	for i := range samples {
		samples[i] = mat.Row(nil, i, X)
	}
	k.samples = samples
	k.labels = append([]int(nil), y...)
	k.classes = classes
	k.cols = cols
	return nil
}

func (k *KNeighbors) Predict(X mat.Matrix) ([]int, error) {
	if k.samples == nil {
		return nil, ErrNotFitted
	}
	rows, err := checkPredictInput(X, k.cols)
	if err != nil {
		return nil, err
	}

	norm := 2.0
	if k.params.Metric == "manhattan" {
		norm = 1.0
	}

	type neighbor struct {
		idx  int
		dist float64
	}
	neighbors := make([]neighbor, len(k.samples))
	query := make([]float64, k.cols)
	votes := make([]float64, k.classes)
	out := make([]int, rows)

	for i := 0; i < rows; i++ {
		mat.Row(query, i, X)
		for j, s := range k.samples {
			neighbors[j] = neighbor{idx: j, dist: floats.Distance(query, s, norm)}
		}
		sort.SliceStable(neighbors, func(a, b int) bool {
			return neighbors[a].dist < neighbors[b].dist
		})

		for c := range votes {
			votes[c] = 0
		}
		nearest := neighbors[:k.params.NNeighbors]
		exact := k.params.Weights == "distance" && nearest[0].dist == 0
		for _, n := range nearest {
			label := k.labels[n.idx]
			switch {
			case k.params.Weights == "uniform":
				votes[label]++
			case exact:
				// Exact matches take all the weight.
				if n.dist == 0 {
					votes[label]++
				}
			default:
				votes[label] += 1 / n.dist
			}
		}
		out[i] = argmax(votes)
	}
	return out, nil
}
