package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/speriment"
	"github.com/aretw0/speriment/pkg/domain"
	"github.com/aretw0/speriment/pkg/dsl"
	"github.com/aretw0/speriment/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valid(b *dsl.Builder) (*domain.Experiment, error) {
	o := b.Option(dsl.OptionConfig{Text: "yes", Feedback: dsl.FeedbackText("ok")})
	p := b.Page(dsl.PageConfig{Text: "ready?", Options: []*domain.Option{o}})
	return b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{b.Block(dsl.BlockConfig{Pages: []*domain.Page{p}})}}), nil
}

func invalid(b *dsl.Builder) (*domain.Experiment, error) {
	return b.Experiment(dsl.ExperimentConfig{Blocks: []*domain.Block{b.Block(dsl.BlockConfig{})}}), nil
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	c, err := speriment.New(speriment.WithHooks(m.Hooks()))
	require.NoError(t, err)

	art, err := c.Build(0, valid)
	require.NoError(t, err)
	_, err = c.Build(0, invalid)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compilations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compilations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("validate")))
	assert.Equal(t, float64(len(art.JSON)), testutil.ToFloat64(m.ArtifactBytes))

	// validate, expand, encode and total
	assert.Equal(t, 4, testutil.CollectAndCount(m.Duration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Pages))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.CompileHooks{OnCompileDone: func(*domain.CompileEvent) { order = append(order, "a") }}
	b := domain.CompileHooks{
		OnCompileDone:  func(*domain.CompileEvent) { order = append(order, "b") },
		OnCompileStart: func(*domain.CompileEvent) { order = append(order, "start") },
	}

	h := observability.Combine(a, b)
	assert.Nil(t, h.OnStageDone)
	assert.Nil(t, h.OnCompileFailed)

	h.OnCompileStart(&domain.CompileEvent{})
	h.OnCompileDone(&domain.CompileEvent{})
	assert.Equal(t, []string{"start", "a", "b"}, order)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	c, err := speriment.New(speriment.WithHooks(observability.LoggingHooks(logger)))
	require.NoError(t, err)

	_, err = c.Build(0, valid)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Experiment compiled")
	assert.Contains(t, buf.String(), "pages=2")

	buf.Reset()
	_, _ = c.Build(0, invalid)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "stage=validate")
}
