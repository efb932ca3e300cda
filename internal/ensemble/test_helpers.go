package ensemble

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	fits         int
	fitFailures  map[string]int
	fitLatencies map[string]float64
	weights      map[string]float64
	predictions  int
	predictCalls int
	accuracies   []float64
}

func (m *MockMetrics) EnsembleFitsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fits++
}

func (m *MockMetrics) EnsembleFitFailuresInc(algorithm string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fitFailures == nil {
		m.fitFailures = make(map[string]int)
	}
	m.fitFailures[algorithm]++
}

func (m *MockMetrics) EnsembleFitLatencyObserve(algorithm string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fitLatencies == nil {
		m.fitLatencies = make(map[string]float64)
	}
	m.fitLatencies[algorithm] += seconds
}

func (m *MockMetrics) EnsembleWeightSet(algorithm string, weight float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.weights == nil {
		m.weights = make(map[string]float64)
	}
	m.weights[algorithm] = weight
}

func (m *MockMetrics) EnsemblePredictionsAdd(rows int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions += rows
	m.predictCalls++
}

func (m *MockMetrics) EnsemblePredictLatencyObserve(seconds float64) {}

func (m *MockMetrics) EnsembleAccuracyObserve(accuracy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accuracies = append(m.accuracies, accuracy)
}
