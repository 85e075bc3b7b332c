package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics are the collectors updated by the metrics middleware.
type StoreMetrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewStoreMetrics creates and registers the store collectors.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "speriment_store_operations_total",
			Help: "Artifact store operations by backend, operation and outcome",
		}, []string{"backend", "op", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "speriment_store_operation_duration_seconds",
			Help:    "Duration of artifact store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "op"}),
	}
	reg.MustRegister(m.Operations, m.Duration)
	return m
}

// Middleware returns a middleware recording every call under the backend label.
// A Load of a missing artifact counts as outcome "not_found", not "error".
func (m *StoreMetrics) Middleware(backend string) Middleware {
	return func(next ports.ArtifactStore) ports.ArtifactStore {
		return &metricsMiddleware{next: next, metrics: m, backend: backend}
	}
}

type metricsMiddleware struct {
	next    ports.ArtifactStore
	metrics *StoreMetrics
	backend string
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrArtifactNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	m.metrics.Operations.WithLabelValues(m.backend, op, outcome).Inc()
	m.metrics.Duration.WithLabelValues(m.backend, op).Observe(time.Since(start).Seconds())
}

func (m *metricsMiddleware) Save(ctx context.Context, name string, artifact []byte) (err error) {
	defer func(start time.Time) { m.observe("save", start, err) }(time.Now())
	return m.next.Save(ctx, name, artifact)
}

func (m *metricsMiddleware) Load(ctx context.Context, name string) (data []byte, err error) {
	defer func(start time.Time) { m.observe("load", start, err) }(time.Now())
	return m.next.Load(ctx, name)
}

func (m *metricsMiddleware) Delete(ctx context.Context, name string) (err error) {
	defer func(start time.Time) { m.observe("delete", start, err) }(time.Now())
	return m.next.Delete(ctx, name)
}

func (m *metricsMiddleware) List(ctx context.Context) (names []string, err error) {
	defer func(start time.Time) { m.observe("list", start, err) }(time.Now())
	return m.next.List(ctx)
}
