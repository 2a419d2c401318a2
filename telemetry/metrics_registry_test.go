package telemetry

import (
	"context"
	"testing"

	"github.com/KOMKZ/go-yogan-inject/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type countingProvider struct {
	name          string
	enabled       bool
	registerCalls int
	registerErr   error
	counter       metric.Int64Counter
}

func (p *countingProvider) MetricsName() string    { return p.name }
func (p *countingProvider) IsMetricsEnabled() bool { return p.enabled }

func (p *countingProvider) RegisterMetrics(meter metric.Meter) error {
	p.registerCalls++
	if p.registerErr != nil {
		return p.registerErr
	}
	counter, err := NewMetricsBuilder(meter, p.name).Counter("events_total", "events")
	p.counter = counter
	return err
}

func TestMetricsRegistry_RegisterRecords(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r := NewMetricsRegistry(mp, WithNamespace("app"))

	p := &countingProvider{name: "inject", enabled: true}
	require.NoError(t, r.Register(p))
	require.Equal(t, 1, p.registerCalls)

	p.counter.Add(context.Background(), 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "app_inject", rm.ScopeMetrics[0].Scope.Name)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "inject_events_total", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.EqualValues(t, 3, sum.DataPoints[0].Value)
}

func TestMetricsRegistry_RegisterRejects(t *testing.T) {
	tests := []struct {
		name     string
		provider component.MetricsProvider
		contains string
	}{
		{"nil provider", nil, "nil"},
		{"empty name", &countingProvider{enabled: true}, "empty"},
		{"register error", &countingProvider{name: "x", enabled: true, registerErr: assert.AnError}, "register metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewMetricsRegistry(noop.NewMeterProvider())
			err := r.Register(tt.provider)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Empty(t, r.ProviderNames())
		})
	}
}

func TestMetricsRegistry_Duplicate(t *testing.T) {
	r := NewMetricsRegistry(noop.NewMeterProvider())

	require.NoError(t, r.Register(&countingProvider{name: "inject", enabled: true}))
	err := r.Register(&countingProvider{name: "inject", enabled: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Equal(t, []string{"inject"}, r.ProviderNames())
}

func TestMetricsRegistry_Disabled(t *testing.T) {
	t.Run("provider disabled", func(t *testing.T) {
		r := NewMetricsRegistry(noop.NewMeterProvider())
		p := &countingProvider{name: "inject"}

		require.NoError(t, r.Register(p))
		assert.Zero(t, p.registerCalls)
	})

	t.Run("registry disabled", func(t *testing.T) {
		r := NewMetricsRegistry(noop.NewMeterProvider())
		r.SetEnabled(false)
		p := &countingProvider{name: "inject", enabled: true}

		require.NoError(t, r.Register(p))
		assert.Zero(t, p.registerCalls)
		assert.False(t, r.IsEnabled())
	})
}

func TestMetricsRegistry_BaseLabels(t *testing.T) {
	labels := []attribute.KeyValue{attribute.String("env", "test")}
	r := NewMetricsRegistry(nil, WithBaseLabels(labels))

	got := r.GetBaseLabels()
	got[0] = attribute.String("modified", "x")
	labels[0] = attribute.String("changed", "y")

	assert.Equal(t, "env", string(r.GetBaseLabels()[0].Key))
	assert.Equal(t, "yogan", r.namespace)
}
