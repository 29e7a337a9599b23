package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the solve loop.
type Metrics struct {
	registry       *prometheus.Registry
	Attempts       *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	GeneratedBytes prometheus.Counter
	BackendErrors  *prometheus.CounterVec
	CasesRun       *prometheus.CounterVec
	Runs           *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with loop collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autosolve_attempts_total",
		Help: "Attempts by outcome kind",
	}, []string{"outcome"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autosolve_stage_duration_seconds",
		Help:    "Duration of generate, compile and test stages in seconds",
		Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	generated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autosolve_generated_bytes_total",
		Help: "Bytes of model output received",
	})

	backendErrs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autosolve_backend_errors_total",
		Help: "Generative backend failures by model",
	}, []string{"model"})

	cases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autosolve_cases_total",
		Help: "Executed fixture cases by verdict",
	}, []string{"verdict"})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autosolve_runs_total",
		Help: "Finished solve runs by result",
	}, []string{"result"})

	reg.MustRegister(attempts, durs, generated, backendErrs, cases, runs)

	return &Metrics{
		registry:       reg,
		Attempts:       attempts,
		StageDuration:  durs,
		GeneratedBytes: generated,
		BackendErrors:  backendErrs,
		CasesRun:       cases,
		Runs:           runs,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAttempt counts one finished attempt.
func (m *Metrics) RecordAttempt(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.Attempts.WithLabelValues(kind).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordGenerated adds n bytes of model output.
func (m *Metrics) RecordGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.GeneratedBytes.Add(float64(n))
}

// RecordBackendError counts a failed generation.
func (m *Metrics) RecordBackendError(model string) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.BackendErrors.WithLabelValues(model).Inc()
}

// RecordCase counts one executed fixture.
func (m *Metrics) RecordCase(verdict string) {
	if m == nil {
		return
	}
	m.CasesRun.WithLabelValues(verdict).Inc()
}

// RecordRun counts a finished run: solved, exhausted, interrupted or failed.
func (m *Metrics) RecordRun(result string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
