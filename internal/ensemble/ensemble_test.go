package ensemble

import (
	"errors"
	"math/rand"
	"testing"

	"majority-vote/internal/crossval"
	"majority-vote/internal/learners"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gonum.org/v1/gonum/mat"
)

// constClassifier always predicts label. score is reported by fixedValidator.
type constClassifier struct {
	label  int
	score  float64
	fitErr error
}

func (c *constClassifier) Fit(X mat.Matrix, y []int) error { return c.fitErr }

func (c *constClassifier) Predict(X mat.Matrix) ([]int, error) {
	rows, _ := X.Dims()
	out := make([]int, rows)
	for i := range out {
		out[i] = c.label
	}
	return out, nil
}

// fixedValidator reports the score carried by the constClassifier it builds.
type fixedValidator struct{}

func (fixedValidator) MeanScore(newModel func() (learners.Classifier, error), X mat.Matrix, y []int, folds int) (float64, error) {
	m, err := newModel()
	if err != nil {
		return 0, err
	}
	return m.(*constClassifier).score, nil
}

func constRegistry(models map[string]constClassifier) *Registry {
	r := NewRegistry()
	for id, c := range models {
		r.Register(id, func(map[string]any) (learners.Classifier, error) {
			model := c
			return &model, nil
		})
	}
	return r
}

// clusters returns perPerClass rows around (1,5) labelled 0 and perClass rows around (5,1)
// labelled 1.
func clusters(perClass int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(2*perClass, 2, nil)
	y := make([]int, 2*perClass)
	for i := 0; i < 2*perClass; i++ {
		cx, cy := 1.0, 5.0
		if i >= perClass {
			cx, cy = 5.0, 1.0
			y[i] = 1
		}
		X.Set(i, 0, cx+rng.Float64()-0.5)
		X.Set(i, 1, cy+rng.Float64()-0.5)
	}
	return X, y
}

func smallInput() (*mat.Dense, []int) {
	return mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8}), []int{0, 1, 0, 1}
}

func TestEnsemble_TieBreaksToSmallestLabel(t *testing.T) {
	reg := constRegistry(map[string]constClassifier{
		"a": {label: 1},
		"b": {label: 0},
	})
	e, err := NewWithDependencies(Config{Algorithms: []string{"a", "b"}}, Dependencies{Registry: reg})
	require.NoError(t, err)

	X, y := smallInput()
	require.NoError(t, e.Fit(X, y))

	pred, err := e.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, pred)
}

func TestEnsemble_WeightedVoteOverridesCount(t *testing.T) {
	models := map[string]constClassifier{
		"a": {label: 0, score: 100},
		"b": {label: 1, score: 1},
		"c": {label: 1, score: 1},
	}
	X, y := smallInput()

	weighted, err := NewWithDependencies(
		Config{Algorithms: []string{"a", "b", "c"}, Weighted: true},
		Dependencies{Registry: constRegistry(models), Validator: fixedValidator{}},
	)
	require.NoError(t, err)
	require.NoError(t, weighted.Fit(X, y))
	assert.Equal(t, []float64{100, 1, 1}, weighted.Weights())

	pred, err := weighted.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, pred)

	unweighted, err := NewWithDependencies(
		Config{Algorithms: []string{"a", "b", "c"}},
		Dependencies{Registry: constRegistry(models), Validator: fixedValidator{}},
	)
	require.NoError(t, err)
	require.NoError(t, unweighted.Fit(X, y))
	assert.Equal(t, []float64{1, 1, 1}, unweighted.Weights())

	pred, err = unweighted.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1}, pred)
}

func TestEnsemble_AlgorithmOrderDoesNotChangePredictions(t *testing.T) {
	models := map[string]constClassifier{
		"a": {label: 2, score: 0.1},
		"b": {label: 0, score: 0.2},
		"c": {label: 2, score: 0.2},
		"d": {label: 1, score: 0.3},
	}
	X, y := smallInput()

	orders := [][]string{
		{"a", "b", "c", "d"},
		{"d", "c", "b", "a"},
		{"c", "a", "d", "b"},
	}
	var first []int
	for _, order := range orders {
		e, err := NewWithDependencies(
			Config{Algorithms: order, Weighted: true},
			Dependencies{Registry: constRegistry(models), Validator: fixedValidator{}},
		)
		require.NoError(t, err)
		require.NoError(t, e.Fit(X, y))

		pred, err := e.Predict(X)
		require.NoError(t, err)
		if first == nil {
			first = pred
			continue
		}
		assert.Equal(t, first, pred, "order %v", order)
	}
	assert.Equal(t, []int{2, 2, 2, 2}, first)
}

func TestEnsemble_NearestNeighborScoresPerfectOnTrainingData(t *testing.T) {
	X, y := clusters(50, 7)
	e, err := New(Config{
		Algorithms: []string{AlgorithmKNN},
		Params:     map[string]map[string]any{AlgorithmKNN: {"n_neighbors": 1}},
	})
	require.NoError(t, err)
	require.NoError(t, e.Fit(X, y))

	score, err := e.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestEnsemble_DefaultLearnersSeparateClusters(t *testing.T) {
	X, y := clusters(50, 11)
	cfg := DefaultConfig()
	cfg.Weighted = true
	cfg.Parallelism = 4
	metrics := &MockMetrics{}

	e, err := NewWithDependencies(cfg, Dependencies{Metrics: metrics})
	require.NoError(t, err)
	require.NoError(t, e.Fit(X, y))
	assert.True(t, e.IsFitted())

	for _, s := range e.Slots() {
		assert.True(t, s.Fitted, s.Algorithm)
		assert.InDelta(t, s.CVScore, s.Weight, 1e-12, s.Algorithm)
		assert.GreaterOrEqual(t, s.Weight, 0.0, s.Algorithm)
		assert.LessOrEqual(t, s.Weight, 1.0, s.Algorithm)
	}

	score, err := e.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.95)

	assert.Equal(t, 1, metrics.fits)
	assert.Len(t, metrics.weights, 5)
	assert.Equal(t, 100, metrics.predictions)
	assert.Equal(t, []float64{score}, metrics.accuracies)
}

func TestEnsemble_DefaultConfig(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"svm", "knn", "mnb", "rf", "mlp"}, e.Algorithms())
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, e.Weights())
	assert.Equal(t, DefaultFolds, e.Folds())
	assert.False(t, e.Weighted())
	assert.False(t, e.IsFitted())
}

func TestEnsemble_PredictBeforeFit(t *testing.T) {
	e, err := New(Config{Algorithms: []string{AlgorithmKNN}})
	require.NoError(t, err)

	X, y := smallInput()
	_, err = e.Predict(X)
	assert.ErrorIs(t, err, ErrNotFitted)

	_, err = e.Score(X, y)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestEnsemble_Empty(t *testing.T) {
	e, err := New(Config{Algorithms: []string{}})
	require.NoError(t, err)
	assert.False(t, e.IsFitted())

	X, y := smallInput()
	assert.ErrorIs(t, e.Fit(X, y), ErrEmptyEnsemble)

	_, err = e.Predict(X)
	assert.ErrorIs(t, err, ErrEmptyEnsemble)
}

func TestEnsemble_FitInputValidation(t *testing.T) {
	e, err := New(Config{Algorithms: []string{AlgorithmKNN}})
	require.NoError(t, err)
	X, _ := smallInput()

	t.Run("length mismatch", func(t *testing.T) {
		err := e.Fit(X, []int{0, 1, 0})
		var dm *DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 4, dm.Expected)
		assert.Equal(t, 3, dm.Actual)
	})

	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, e.Fit(nil, nil), ErrEmptyInput)
	})

	t.Run("negative label", func(t *testing.T) {
		err := e.Fit(X, []int{0, 1, -1, 1})
		var il *InvalidLabelError
		require.ErrorAs(t, err, &il)
		assert.Equal(t, 2, il.Index)
		assert.Equal(t, -1, il.Label)
	})

	assert.False(t, e.IsFitted())
}

func TestEnsemble_ScoreLengthMismatch(t *testing.T) {
	X, y := clusters(5, 1)
	e, err := New(Config{Algorithms: []string{AlgorithmKNN}, Params: map[string]map[string]any{AlgorithmKNN: {"n_neighbors": 3}}})
	require.NoError(t, err)
	require.NoError(t, e.Fit(X, y))

	_, err = e.Score(X, y[:4])
	var dm *DimensionMismatchError
	assert.ErrorAs(t, err, &dm)
}

func TestEnsemble_ConfigurationErrors(t *testing.T) {
	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := New(Config{Algorithms: []string{AlgorithmSVM, "xgboost"}})
		var ua *UnknownAlgorithmError
		require.ErrorAs(t, err, &ua)
		assert.Equal(t, "xgboost", ua.Algorithm)
		assert.Equal(t, []string{"knn", "mlp", "mnb", "rf", "svm"}, ua.Supported)
	})

	t.Run("invalid parameter value", func(t *testing.T) {
		_, err := New(Config{
			Algorithms: []string{AlgorithmKNN},
			Params:     map[string]map[string]any{AlgorithmKNN: {"n_neighbors": -1}},
		})
		var ic *InvalidConfigurationError
		require.ErrorAs(t, err, &ic)
		assert.Equal(t, AlgorithmKNN, ic.Algorithm)
	})

	t.Run("unknown parameter name", func(t *testing.T) {
		_, err := New(Config{
			Algorithms: []string{AlgorithmRF},
			Params:     map[string]map[string]any{AlgorithmRF: {"n_trees": 5}},
		})
		var ic *InvalidConfigurationError
		assert.ErrorAs(t, err, &ic)
	})

	t.Run("duplicate algorithm", func(t *testing.T) {
		_, err := New(Config{Algorithms: []string{AlgorithmMNB, AlgorithmMNB}})
		var ic *InvalidConfigurationError
		assert.ErrorAs(t, err, &ic)
	})

	t.Run("too few folds", func(t *testing.T) {
		_, err := New(Config{Algorithms: []string{AlgorithmMNB}, Folds: 1})
		var ic *InvalidConfigurationError
		assert.ErrorAs(t, err, &ic)
	})

	t.Run("params for unlisted algorithm are ignored", func(t *testing.T) {
		_, err := New(Config{
			Algorithms: []string{AlgorithmMNB},
			Params:     map[string]map[string]any{AlgorithmKNN: {"n_neighbors": -1}},
		})
		assert.NoError(t, err)
	})
}

func TestEnsemble_ModelFitErrorKeepsEnsembleUnfitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	good := NewMockClassifier(ctrl)
	bad := NewMockClassifier(ctrl)
	fitErr := errors.New("singular matrix")

	X, y := smallInput()
	good.EXPECT().Fit(X, y).Return(nil).Times(2)
	bad.EXPECT().Fit(X, y).Return(fitErr).Times(2)

	reg := NewRegistry()
	reg.Register("good", func(map[string]any) (learners.Classifier, error) { return good, nil })
	reg.Register("bad", func(map[string]any) (learners.Classifier, error) { return bad, nil })
	metrics := &MockMetrics{}

	e, err := NewWithDependencies(
		Config{Algorithms: []string{"good", "bad"}, Parallelism: 2},
		Dependencies{Registry: reg, Metrics: metrics},
	)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err = e.Fit(X, y)
		var mf *ModelFitError
		require.ErrorAs(t, err, &mf)
		assert.Equal(t, "bad", mf.Algorithm)
		assert.ErrorIs(t, err, fitErr)
		assert.False(t, e.IsFitted())
	}
	assert.Equal(t, 2, metrics.fitFailures["bad"])
	assert.Zero(t, metrics.fits)

	_, err = e.Predict(X)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestEnsemble_LowestFailingSlotReported(t *testing.T) {
	reg := constRegistry(map[string]constClassifier{
		"ok":     {label: 0},
		"first":  {fitErr: errors.New("first")},
		"second": {fitErr: errors.New("second")},
	})
	e, err := NewWithDependencies(
		Config{Algorithms: []string{"ok", "second", "first"}, Parallelism: 3},
		Dependencies{Registry: reg},
	)
	require.NoError(t, err)

	X, y := smallInput()
	var mf *ModelFitError
	require.ErrorAs(t, e.Fit(X, y), &mf)
	assert.Equal(t, "second", mf.Algorithm)
}

func TestEnsemble_PredictPropagatesLearnerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewMockClassifier(ctrl)
	X, y := smallInput()
	m.EXPECT().Fit(gomock.Any(), gomock.Any()).Return(nil)
	m.EXPECT().Predict(X).Return([]int{0, 1}, nil)

	reg := NewRegistry()
	reg.Register("m", func(map[string]any) (learners.Classifier, error) { return m, nil })
	e, err := NewWithDependencies(Config{Algorithms: []string{"m"}}, Dependencies{Registry: reg})
	require.NoError(t, err)
	require.NoError(t, e.Fit(X, y))

	_, err = e.Predict(X)
	assert.Error(t, err)
}

func TestEnsemble_RefitReplacesWeights(t *testing.T) {
	score := 0.25
	reg := NewRegistry()
	reg.Register("a", func(map[string]any) (learners.Classifier, error) {
		return &constClassifier{label: 0, score: score}, nil
	})
	e, err := NewWithDependencies(
		Config{Algorithms: []string{"a"}, Weighted: true},
		Dependencies{Registry: reg, Validator: fixedValidator{}},
	)
	require.NoError(t, err)

	X, y := smallInput()
	require.NoError(t, e.Fit(X, y))
	assert.Equal(t, []float64{0.25}, e.Weights())

	score = 0.75
	require.NoError(t, e.Fit(X, y))
	assert.Equal(t, []float64{0.75}, e.Weights())
}

func TestTally(t *testing.T) {
	tests := []struct {
		name    string
		votes   []int
		weights []float64
		want    int
	}{
		{"plurality", []int{2, 1, 2}, nil, 2},
		{"tie to smallest", []int{3, 1, 3, 1}, nil, 1},
		{"single vote", []int{4}, nil, 4},
		{"weights beat count", []int{0, 1, 1}, []float64{0.9, 0.4, 0.4}, 0},
		{"weighted tie to smallest", []int{5, 2}, []float64{0.5, 0.5}, 2},
		{"zero weights still vote", []int{3, 3}, []float64{0, 0}, 3},
		{"no votes", nil, nil, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Vote(tc.votes, tc.weights))
		})
	}
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]int{0, 1, 1, 0}, []int{0, 1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	_, err = Accuracy([]int{0}, []int{0, 1})
	var dm *DimensionMismatchError
	assert.ErrorAs(t, err, &dm)

	_, err = Accuracy(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEnsemble_PredictWithVotes(t *testing.T) {
	reg := constRegistry(map[string]constClassifier{
		"a": {label: 2},
		"b": {label: 1},
		"c": {label: 2},
	})
	e, err := NewWithDependencies(Config{Algorithms: []string{"a", "b", "c"}}, Dependencies{Registry: reg})
	require.NoError(t, err)

	X, y := smallInput()
	require.NoError(t, e.Fit(X, y))

	pred, votes, err := e.PredictWithVotes(X)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 2}, pred)
	assert.Equal(t, map[string][]int{
		"a": {2, 2, 2, 2},
		"b": {1, 1, 1, 1},
		"c": {2, 2, 2, 2},
	}, votes)
}

func TestEnsemble_RealLearnersOrderIndependent(t *testing.T) {
	X, y := clusters(15, 21)
	grid := mat.NewDense(5, 2, []float64{3, 3, 2.5, 3.5, 3.5, 2.5, 1, 1, 5, 5})

	base := DefaultConfig().Algorithms
	reversed := make([]string, len(base))
	for i, id := range base {
		reversed[len(base)-1-i] = id
	}
	rotated := append(append([]string(nil), base[2:]...), base[:2]...)

	var firstX, firstGrid []int
	var firstWeights map[string]float64
	for _, order := range [][]string{base, reversed, rotated} {
		e, err := New(Config{Algorithms: order, Weighted: true, Parallelism: 4})
		require.NoError(t, err)
		require.NoError(t, e.Fit(X, y))

		weights := make(map[string]float64)
		for _, s := range e.Slots() {
			weights[s.Algorithm] = s.Weight
		}
		predX, err := e.Predict(X)
		require.NoError(t, err)
		predGrid, err := e.Predict(grid)
		require.NoError(t, err)

		if firstX == nil {
			firstX, firstGrid, firstWeights = predX, predGrid, weights
			continue
		}
		assert.Equal(t, firstWeights, weights, "order %v", order)
		assert.Equal(t, firstX, predX, "order %v", order)
		assert.Equal(t, firstGrid, predGrid, "order %v", order)
	}
}

func TestEnsemble_CrossValidationPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		X       *mat.Dense
		y       []int
		wantErr error
	}{
		{
			name:    "class smaller than folds",
			X:       mat.NewDense(6, 2, []float64{1, 5, 1, 6, 2, 5, 1, 4, 5, 1, 6, 1}),
			y:       []int{0, 0, 0, 0, 1, 1},
			wantErr: crossval.ErrTooFewMembers,
		},
		{
			name:    "fewer rows than folds",
			X:       mat.NewDense(2, 2, []float64{1, 5, 5, 1}),
			y:       []int{0, 1},
			wantErr: crossval.ErrTooFewSamples,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := New(Config{Algorithms: []string{AlgorithmMNB}, Weighted: true, Folds: 3})
			require.NoError(t, err)

			err = e.Fit(tc.X, tc.y)
			var fitErr *ModelFitError
			require.ErrorAs(t, err, &fitErr)
			assert.Equal(t, AlgorithmMNB, fitErr.Algorithm)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.False(t, e.IsFitted())

			_, err = e.Predict(tc.X)
			assert.ErrorIs(t, err, ErrNotFitted)
		})
	}

	t.Run("unweighted skips cross-validation", func(t *testing.T) {
		e, err := New(Config{Algorithms: []string{AlgorithmMNB}, Folds: 3})
		require.NoError(t, err)
		assert.NoError(t, e.Fit(mat.NewDense(2, 2, []float64{1, 5, 5, 1}), []int{0, 1}))
	})
}

func TestEnsemble_RefitWithInvalidInputLeavesEnsembleUnfitted(t *testing.T) {
	reg := constRegistry(map[string]constClassifier{"a": {label: 0}})
	e, err := NewWithDependencies(Config{Algorithms: []string{"a"}}, Dependencies{Registry: reg})
	require.NoError(t, err)

	X, y := smallInput()
	require.NoError(t, e.Fit(X, y))
	require.True(t, e.IsFitted())

	var mismatch *DimensionMismatchError
	require.ErrorAs(t, e.Fit(X, y[:2]), &mismatch)
	assert.False(t, e.IsFitted())

	_, err = e.Predict(X)
	assert.ErrorIs(t, err, ErrNotFitted)
}
