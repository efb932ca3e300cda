package learners

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// SVCParams configures the linear support-vector classifier.
type SVCParams struct {
	C      float64 `mapstructure:"c" yaml:"c"`
	Epochs int     `mapstructure:"epochs" yaml:"epochs"`
	Seed   int64   `mapstructure:"seed" yaml:"seed"`
}

// KNNParams configures the k-nearest-neighbors classifier.
type KNNParams struct {
	NNeighbors int    `mapstructure:"n_neighbors" yaml:"n_neighbors"`
	Weights    string `mapstructure:"weights" yaml:"weights"` // uniform or distance
	Metric     string `mapstructure:"metric" yaml:"metric"`   // euclidean or manhattan
}

// MNBParams configures multinomial naive Bayes.
type MNBParams struct {
	Alpha float64 `mapstructure:"alpha" yaml:"alpha"`
}

// ForestParams configures the random forest.
type ForestParams struct {
	NEstimators     int   `mapstructure:"n_estimators" yaml:"n_estimators"`
	MaxDepth        int   `mapstructure:"max_depth" yaml:"max_depth"` // 0 means unbounded
	MinSamplesSplit int   `mapstructure:"min_samples_split" yaml:"min_samples_split"`
	Seed            int64 `mapstructure:"seed" yaml:"seed"`
}

// MLPParams configures the multi-layer perceptron.
type MLPParams struct {
	HiddenLayerSizes []int   `mapstructure:"hidden_layer_sizes" yaml:"hidden_layer_sizes"`
	Activation       string  `mapstructure:"activation" yaml:"activation"`
	Alpha            float64 `mapstructure:"alpha" yaml:"alpha"`
	LearningRate     float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	MaxIter          int     `mapstructure:"max_iter" yaml:"max_iter"`
	Seed             int64   `mapstructure:"seed" yaml:"seed"`
}

func DefaultSVCParams() SVCParams {
	return SVCParams{C: 1.0, Epochs: 200, Seed: 1}
}

func DefaultKNNParams() KNNParams {
	return KNNParams{NNeighbors: 5, Weights: "uniform", Metric: "euclidean"}
}

func DefaultMNBParams() MNBParams {
	return MNBParams{Alpha: 1.0}
}

func DefaultForestParams() ForestParams {
	return ForestParams{NEstimators: 10, MaxDepth: 0, MinSamplesSplit: 2, Seed: 1}
}

// DefaultMLPParams leaves HiddenLayerSizes empty; NewMLP substitutes a single layer of 100.
func DefaultMLPParams() MLPParams {
	return MLPParams{
		Activation:   "relu",
		Alpha:        1e-4,
		LearningRate: 1e-3,
		MaxIter:      200,
		Seed:         1,
	}
}

func (p SVCParams) Validate() error {
	if p.C <= 0 {
		return fmt.Errorf("c must be positive, got %f", p.C)
	}
	if p.Epochs <= 0 || p.Epochs > 100000 {
		return fmt.Errorf("epochs must be between 1 and 100000, got %d", p.Epochs)
	}
	return nil
}

func (p KNNParams) Validate() error {
	if p.NNeighbors <= 0 {
		return fmt.Errorf("n_neighbors must be positive, got %d", p.NNeighbors)
	}
	switch p.Weights {
	case "uniform", "distance":
	default:
		return fmt.Errorf("weights must be uniform or distance, got %q", p.Weights)
	}
	switch p.Metric {
	case "euclidean", "manhattan":
	default:
		return fmt.Errorf("metric must be euclidean or manhattan, got %q", p.Metric)
	}
	return nil
}

func (p MNBParams) Validate() error {
	if p.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %f", p.Alpha)
	}
	return nil
}

func (p ForestParams) Validate() error {
	if p.NEstimators <= 0 || p.NEstimators > 10000 {
		return fmt.Errorf("n_estimators must be between 1 and 10000, got %d", p.NEstimators)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative, got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be at least 2, got %d", p.MinSamplesSplit)
	}
	return nil
}

func (p MLPParams) Validate() error {
	for i, size := range p.HiddenLayerSizes {
		if size <= 0 {
			return fmt.Errorf("hidden layer %d must have a positive size, got %d", i, size)
		}
	}
	if _, ok := activations[p.Activation]; !ok {
		return fmt.Errorf("unsupported activation %q", p.Activation)
	}
	if p.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative, got %f", p.Alpha)
	}
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		return fmt.Errorf("learning_rate must be in (0, 1], got %f", p.LearningRate)
	}
	if p.MaxIter <= 0 {
		return fmt.Errorf("max_iter must be positive, got %d", p.MaxIter)
	}
	return nil
}

// DecodeParams copies raw named parameters onto out, which must be a pointer to one of the
// parameter structs pre-filled with defaults. Unknown parameter names are an error.
func DecodeParams(raw map[string]any, out any) error {
	if len(raw) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create params decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode params: %w", err)
	}
	return nil
}
