package learners

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// activation pairs a transfer function with its derivative expressed in terms of the
// activated value.
type activation struct {
	fn    func(z float64) float64
	deriv func(a float64) float64
}

var activations = map[string]activation{
	"identity": {
		fn:    func(z float64) float64 { return z },
		deriv: func(float64) float64 { return 1 },
	},
	"relu": {
		fn: func(z float64) float64 { return math.Max(z, 0) },
		deriv: func(a float64) float64 {
			if a > 0 {
				return 1
			}
			return 0
		},
	},
	"logistic": {
		fn:    func(z float64) float64 { return 1 / (1 + math.Exp(-z)) },
		deriv: func(a float64) float64 { return a * (1 - a) },
	},
	"tanh": {
		fn:    math.Tanh,
		deriv: func(a float64) float64 { return 1 - a*a },
	},
}

// MLP is a feed-forward neural network classifier with softmax output, trained by
// full-batch Adam on L2-regularized cross-entropy. Inputs are standardized internally.
type MLP struct {
	params MLPParams
	act    activation

	scaler  *scaler
	layers  []*denseLayer
	classes int
	present []bool
	cols    int
}

type denseLayer struct {
	w *mat.Dense // inputs × outputs
	b []float64

	mw, vw []float64
	mb, vb []float64
}

// NewMLP creates an untrained multi-layer perceptron.
func NewMLP(params MLPParams) (*MLP, error) {
	if len(params.HiddenLayerSizes) == 0 {
		params.HiddenLayerSizes = []int{100}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &MLP{params: params, act: activations[params.Activation]}, nil
}

func (m *MLP) Fit(X mat.Matrix, y []int) error {
	rows, cols, classes, err := checkTrainingSet(X, y)
	if err != nil {
		return err
	}
	m.layers = nil

	sc := fitScaler(X)
	input := sc.transform(X)

	rng := rand.New(rand.NewSource(m.params.Seed))
	sizes := append([]int{cols}, m.params.HiddenLayerSizes...)
	sizes = append(sizes, classes)
	layers := make([]*denseLayer, len(sizes)-1)
	for l := range layers {
		layers[l] = newDenseLayer(sizes[l], sizes[l+1], rng)
	}

	target := mat.NewDense(rows, classes, nil)
	present := make([]bool, classes)
	for i, label := range y {
		target.Set(i, label, 1)
		present[label] = true
	}

	n := float64(rows)
	for iter := 1; iter <= m.params.MaxIter; iter++ {
		acts := m.forward(layers, input)

		// Softmax cross-entropy gradient, averaged over samples.
		delta := mat.NewDense(rows, classes, nil)
		delta.Sub(acts[len(acts)-1], target)
		delta.Scale(1/n, delta)

		stepSize := m.params.LearningRate * math.Sqrt(1-math.Pow(adamBeta2, float64(iter))) /
			(1 - math.Pow(adamBeta1, float64(iter)))

		for l := len(layers) - 1; l >= 0; l-- {
			layer := layers[l]
			in, out := layer.w.Dims()

			gradW := mat.NewDense(in, out, nil)
			gradW.Mul(acts[l].T(), delta)
			floats.AddScaled(gradW.RawMatrix().Data, m.params.Alpha/n, layer.w.RawMatrix().Data)

			gradB := make([]float64, out)
			for j := 0; j < out; j++ {
				gradB[j] = mat.Sum(delta.ColView(j))
			}

			if l > 0 {
				prev := mat.NewDense(rows, in, nil)
				prev.Mul(delta, layer.w.T())
				hidden := acts[l]
				prev.Apply(func(i, j int, v float64) float64 {
					return v * m.act.deriv(hidden.At(i, j))
				}, prev)
				delta = prev
			}

			adamStep(layer.w.RawMatrix().Data, gradW.RawMatrix().Data, layer.mw, layer.vw, stepSize)
			adamStep(layer.b, gradB, layer.mb, layer.vb, stepSize)
		}
	}

	m.scaler = sc
	m.layers = layers
	m.classes = classes
	m.present = present
	m.cols = cols
	return nil
}

func (m *MLP) Predict(X mat.Matrix) ([]int, error) {
	if m.layers == nil {
		return nil, ErrNotFitted
	}
	rows, err := checkPredictInput(X, m.cols)
	if err != nil {
		return nil, err
	}
	acts := m.forward(m.layers, m.scaler.transform(X))
	proba := acts[len(acts)-1]
	out := make([]int, rows)
	row := make([]float64, m.classes)
	for i := 0; i < rows; i++ {
		// Labels never seen in training are not candidates.
		for k, p := range proba.RawRowView(i) {
			row[k] = p
			if !m.present[k] {
				row[k] = math.Inf(-1)
			}
		}
		out[i] = argmax(row)
	}
	return out, nil
}

// forward returns the activations of every layer, input first and softmax output last.
func (m *MLP) forward(layers []*denseLayer, input *mat.Dense) []*mat.Dense {
	rows, _ := input.Dims()
	acts := make([]*mat.Dense, 0, len(layers)+1)
	acts = append(acts, input)
	for l, layer := range layers {
		_, out := layer.w.Dims()
		z := mat.NewDense(rows, out, nil)
		z.Mul(acts[l], layer.w)
		last := l == len(layers)-1
		b := layer.b
		z.Apply(func(i, j int, v float64) float64 {
			if last {
				return v + b[j]
			}
			return m.act.fn(v + b[j])
		}, z)
		if last {
			for i := 0; i < rows; i++ {
				softmax(z.RawRowView(i))
			}
		}
		acts = append(acts, z)
	}
	return acts
}

func newDenseLayer(in, out int, rng *rand.Rand) *denseLayer {
	bound := math.Sqrt(6 / float64(in+out))
	w := mat.NewDense(in, out, nil)
	w.Apply(func(int, int, float64) float64 {
		return (rng.Float64()*2 - 1) * bound
	}, w)
	b := make([]float64, out)
	for j := range b {
		b[j] = (rng.Float64()*2 - 1) * bound
	}
	return &denseLayer{
		w:  w,
		b:  b,
		mw: make([]float64, in*out),
		vw: make([]float64, in*out),
		mb: make([]float64, out),
		vb: make([]float64, out),
	}
}

func adamStep(params, grads, m, v []float64, stepSize float64) {
	for i, g := range grads {
		m[i] = adamBeta1*m[i] + (1-adamBeta1)*g
		v[i] = adamBeta2*v[i] + (1-adamBeta2)*g*g
		params[i] -= stepSize * m[i] / (math.Sqrt(v[i]) + adamEpsilon)
	}
}

func softmax(row []float64) {
	maxVal := floats.Max(row)
	var sum float64
	for j, v := range row {
		row[j] = math.Exp(v - maxVal)
		sum += row[j]
	}
	floats.Scale(1/sum, row)
}
