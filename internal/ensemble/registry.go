package ensemble

import (
	"sort"
	"sync"

	"majority-vote/internal/learners"
)

// Algorithm identifiers understood by DefaultRegistry.
const (
	AlgorithmSVM = "svm"
	AlgorithmKNN = "knn"
	AlgorithmMNB = "mnb"
	AlgorithmRF  = "rf"
	AlgorithmMLP = "mlp"
)

// Factory builds an untrained base learner from named parameters.
type Factory func(params map[string]any) (learners.Classifier, error)

// Registry maps algorithm identifiers to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry holding the five built-in learner families.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(AlgorithmSVM, newSVC)
	r.Register(AlgorithmKNN, newKNN)
	r.Register(AlgorithmMNB, newMNB)
	r.Register(AlgorithmRF, newForest)
	r.Register(AlgorithmMLP, newMLP)
	return r
}

// Register adds or replaces the factory for id.
func (r *Registry) Register(id string, f Factory) {
	if id == "" || f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Supported returns the registered identifiers in sorted order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve builds an untrained model for id. Parameters are handed to the factory as is;
// any error from it is returned as an InvalidConfigurationError.
func (r *Registry) Resolve(id string, params map[string]any) (learners.Classifier, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownAlgorithmError{Algorithm: id, Supported: r.Supported()}
	}

	model, err := f(params)
	if err != nil {
		return nil, &InvalidConfigurationError{Algorithm: id, Err: err}
	}
	return model, nil
}

func newSVC(params map[string]any) (learners.Classifier, error) {
	p := learners.DefaultSVCParams()
	if err := learners.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	model, err := learners.NewSVC(p)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func newKNN(params map[string]any) (learners.Classifier, error) {
	p := learners.DefaultKNNParams()
	if err := learners.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	model, err := learners.NewKNeighbors(p)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func newMNB(params map[string]any) (learners.Classifier, error) {
	p := learners.DefaultMNBParams()
	if err := learners.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	model, err := learners.NewMultinomialNB(p)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func newForest(params map[string]any) (learners.Classifier, error) {
	p := learners.DefaultForestParams()
	if err := learners.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	model, err := learners.NewRandomForest(p)
	if err != nil {
		return nil, err
	}
	return model, nil
}

func newMLP(params map[string]any) (learners.Classifier, error) {
	p := learners.DefaultMLPParams()
	if err := learners.DecodeParams(params, &p); err != nil {
		return nil, err
	}
	model, err := learners.NewMLP(p)
	if err != nil {
		return nil, err
	}
	return model, nil
}
