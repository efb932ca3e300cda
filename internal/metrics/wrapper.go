package metrics

// MetricsWrapper adapts Metrics to the method set the ensemble records through.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) EnsembleFitsInc() {
	w.m.EnsembleFits.Inc()
}

func (w *MetricsWrapper) EnsembleFitFailuresInc(algorithm string) {
	w.m.EnsembleFitFailures.WithLabelValues(algorithm).Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) EnsembleFitLatencyObserve(algorithm string, seconds float64) {
	w.m.EnsembleFitDuration.WithLabelValues(algorithm).Observe(seconds)
}

func (w *MetricsWrapper) EnsembleWeightSet(algorithm string, weight float64) {
	w.m.EnsembleModelWeight.WithLabelValues(algorithm).Set(weight)
}

func (w *MetricsWrapper) EnsemblePredictionsAdd(rows int) {
	w.m.EnsemblePredictions.Add(float64(rows))
}

func (w *MetricsWrapper) EnsemblePredictLatencyObserve(seconds float64) {
	w.m.EnsemblePredictDuration.Observe(seconds)
}

func (w *MetricsWrapper) EnsembleAccuracyObserve(accuracy float64) {
	w.m.EnsembleAccuracy.Observe(accuracy)
}

func (w *MetricsWrapper) EvaluationAccuracySet(split string, accuracy float64) {
	w.m.EvaluationAccuracy.WithLabelValues(split).Set(accuracy)
}

func (w *MetricsWrapper) DatasetRowsSet(rows int) {
	w.m.DatasetRows.Set(float64(rows))
}

func (w *MetricsWrapper) RunsStoredInc() {
	w.m.RunsStored.Inc()
}

func (w *MetricsWrapper) ErrorsInc() {
	w.m.ErrorsTotal.Inc()
}
