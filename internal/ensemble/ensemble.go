// Package ensemble implements a majority-vote classifier over heterogeneous base learners.
//
// An Ensemble is built from a Config naming the algorithms to combine. Fit trains every
// base learner on the same data and, when weighting is enabled, sets each learner's vote
// weight to its cross-validated accuracy. Predict collects one hard label per learner for
// every row and returns the label with the largest (weighted) vote count, breaking ties
// toward the smallest label. Score reports plain accuracy of those predictions.
//
// Labels are non-negative integers; use dataset.LabelEncoder to map other label types.
// An Ensemble is not safe for concurrent Fit and Predict calls.
package ensemble

import (
	"fmt"
	"sort"

	"majority-vote/internal/crossval"
	"majority-vote/internal/learners"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// DefaultFolds is the cross-validation fold count used when Config.Folds is zero.
const DefaultFolds = 3

// MetricsInterface defines metrics methods needed by the ensemble
type MetricsInterface interface {
	EnsembleFitsInc()
	EnsembleFitFailuresInc(algorithm string)
	EnsembleFitLatencyObserve(algorithm string, seconds float64)
	EnsembleWeightSet(algorithm string, weight float64)
	EnsemblePredictionsAdd(rows int)
	EnsemblePredictLatencyObserve(seconds float64)
	EnsembleAccuracyObserve(accuracy float64)
}

// CrossValidator estimates the accuracy of a model configuration. newModel returns a fresh,
// untrained instance on every call.
type CrossValidator interface {
	MeanScore(newModel func() (learners.Classifier, error), X mat.Matrix, y []int, folds int) (float64, error)
}

// Config selects and configures the base learners.
type Config struct {
	// Algorithms lists registry identifiers. Order is kept for slot indexing only.
	Algorithms []string `yaml:"algorithms"`
	// Params holds named parameters per identifier. Entries for identifiers not listed in
	// Algorithms are ignored.
	Params map[string]map[string]any `yaml:"params"`
	// Weighted scales each vote by the learner's cross-validated accuracy.
	Weighted bool `yaml:"weighted"`
	// Folds is the cross-validation fold count, at least 2. Zero selects DefaultFolds.
	Folds int `yaml:"folds"`
	// Parallelism bounds how many slots are fitted or queried at once. Values below 2 run
	// sequentially.
	Parallelism int `yaml:"parallelism"`
}

// DefaultConfig combines all five built-in learners with default parameters, unweighted.
func DefaultConfig() Config {
	return Config{
		Algorithms: []string{AlgorithmSVM, AlgorithmKNN, AlgorithmMNB, AlgorithmRF, AlgorithmMLP},
		Params:     map[string]map[string]any{},
		Folds:      DefaultFolds,
	}
}

// slot is one configured base learner and its vote weight.
type slot struct {
	Algorithm string
	Model     learners.Classifier
	Weight    float64
	CVScore   float64

	newModel func() (learners.Classifier, error)
	fitted   bool
}

// SlotInfo is a read-only view of a slot.
type SlotInfo struct {
	Algorithm string  `json:"algorithm"`
	Weight    float64 `json:"weight"`
	CVScore   float64 `json:"cv_score"`
	Fitted    bool    `json:"fitted"`
}

// Dependencies lets callers replace collaborators. Zero values select the defaults:
// DefaultRegistry, crossval-backed validation, no metrics and the global logger.
type Dependencies struct {
	Registry  *Registry
	Validator CrossValidator
	Metrics   MetricsInterface
	Logger    *zerolog.Logger
}

// Ensemble is a majority-vote classifier.
type Ensemble struct {
	slots       []*slot
	voteOrder   []int // slot indices sorted by algorithm identifier
	weighted    bool
	folds       int
	parallelism int

	validator CrossValidator
	metrics   MetricsInterface
	logger    zerolog.Logger
}

// New builds an unfitted ensemble with the default collaborators.
func New(cfg Config) (*Ensemble, error) {
	return NewWithDependencies(cfg, Dependencies{})
}

// NewWithDependencies builds an unfitted ensemble, resolving every configured identifier
// through the registry once.
func NewWithDependencies(cfg Config, deps Dependencies) (*Ensemble, error) {
	registry := deps.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	validator := deps.Validator
	if validator == nil {
		validator = crossval.Validator{}
	}
	logger := log.Logger.With().Str("component", "ensemble").Logger()
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	folds := cfg.Folds
	if folds == 0 {
		folds = DefaultFolds
	}
	if folds < 2 {
		return nil, &InvalidConfigurationError{Err: fmt.Errorf("folds must be at least 2, got %d", cfg.Folds)}
	}

	seen := make(map[string]bool, len(cfg.Algorithms))
	slots := make([]*slot, 0, len(cfg.Algorithms))
	for _, id := range cfg.Algorithms {
		if seen[id] {
			return nil, &InvalidConfigurationError{Algorithm: id, Err: fmt.Errorf("algorithm listed more than once")}
		}
		seen[id] = true

		params := copyParams(cfg.Params[id])
		model, err := registry.Resolve(id, params)
		if err != nil {
			return nil, err
		}
		algorithm := id
		slots = append(slots, &slot{
			Algorithm: algorithm,
			Model:     model,
			Weight:    1,
			newModel: func() (learners.Classifier, error) {
				return registry.Resolve(algorithm, params)
			},
		})
	}

	for id := range cfg.Params {
		if !seen[id] {
			logger.Debug().Str("algorithm", id).Msg("Ignoring params for unlisted algorithm")
		}
	}

	order := make([]int, len(slots))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return slots[order[a]].Algorithm < slots[order[b]].Algorithm
	})

	logger.Info().
		Strs("algorithms", cfg.Algorithms).
		Bool("weighted", cfg.Weighted).
		Int("folds", folds).
		Int("parallelism", cfg.Parallelism).
		Msg("Ensemble configured")

	return &Ensemble{
		slots:       slots,
		voteOrder:   order,
		weighted:    cfg.Weighted,
		folds:       folds,
		parallelism: cfg.Parallelism,
		validator:   validator,
		metrics:     deps.Metrics,
		logger:      logger,
	}, nil
}

// Algorithms returns the configured identifiers in slot order.
func (e *Ensemble) Algorithms() []string {
	ids := make([]string, len(e.slots))
	for i, s := range e.slots {
		ids[i] = s.Algorithm
	}
	return ids
}

// Weights returns the current vote weights in slot order.
func (e *Ensemble) Weights() []float64 {
	w := make([]float64, len(e.slots))
	for i, s := range e.slots {
		w[i] = s.Weight
	}
	return w
}

// Slots returns a snapshot of every slot.
func (e *Ensemble) Slots() []SlotInfo {
	out := make([]SlotInfo, len(e.slots))
	for i, s := range e.slots {
		out[i] = SlotInfo{Algorithm: s.Algorithm, Weight: s.Weight, CVScore: s.CVScore, Fitted: s.fitted}
	}
	return out
}

// Weighted reports whether votes are scaled by cross-validated accuracy.
func (e *Ensemble) Weighted() bool {
	return e.weighted
}

// Folds returns the cross-validation fold count.
func (e *Ensemble) Folds() int {
	return e.folds
}

// IsFitted reports whether the last Fit succeeded for every slot.
func (e *Ensemble) IsFitted() bool {
	if len(e.slots) == 0 {
		return false
	}
	for _, s := range e.slots {
		if !s.fitted {
			return false
		}
	}
	return true
}

func (e *Ensemble) workers() int {
	if e.parallelism < 2 {
		return 1
	}
	return e.parallelism
}

func copyParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
