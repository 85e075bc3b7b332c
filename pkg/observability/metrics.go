package observability

import (
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by compilations.
//
//   - speriment_compilations_total{outcome} counts finished compilations ("ok" or "failed").
//   - speriment_compile_failures_total{stage} counts failures by the stage that rejected the tree.
//   - speriment_compile_duration_seconds{stage} observes each stage and the whole run (stage="total").
//   - speriment_artifact_pages observes the page count of emitted artifacts.
//   - speriment_artifact_bytes records the size of the last emitted artifact.
type Metrics struct {
	Compilations  *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Pages         prometheus.Histogram
	ArtifactBytes prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Pass a fresh prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Compilations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speriment_compilations_total",
			Help: "Total number of finished compilations by outcome",
		}, []string{"outcome"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speriment_compile_failures_total",
			Help: "Failed compilations by the stage that failed",
		}, []string{"stage"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "speriment_compile_duration_seconds",
			Help:    "Duration of compiler stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		Pages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "speriment_artifact_pages",
			Help:    "Number of pages in emitted artifacts, synthesized feedback pages included",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ArtifactBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "speriment_artifact_bytes",
			Help: "Size of the most recently emitted artifact",
		}),
	}
	reg.MustRegister(m.Compilations, m.Failures, m.Duration, m.Pages, m.ArtifactBytes)
	return m
}

// Hooks returns compile hooks that update the collectors.
func (m *Metrics) Hooks() domain.CompileHooks {
	return domain.CompileHooks{
		OnStageDone: func(e *domain.CompileEvent) {
			m.Duration.WithLabelValues(string(e.Stage)).Observe(e.Duration.Seconds())
		},
		OnCompileDone: func(e *domain.CompileEvent) {
			m.Compilations.WithLabelValues("ok").Inc()
			m.Duration.WithLabelValues("total").Observe(e.Duration.Seconds())
			m.Pages.Observe(float64(e.Pages))
			m.ArtifactBytes.Set(float64(e.Bytes))
		},
		OnCompileFailed: func(e *domain.CompileEvent) {
			m.Compilations.WithLabelValues("failed").Inc()
			m.Failures.WithLabelValues(string(e.Stage)).Inc()
			m.Duration.WithLabelValues("total").Observe(e.Duration.Seconds())
		},
	}
}
