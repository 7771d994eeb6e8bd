package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestInstruments(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m := Discard()
	registerInstruments(provider.Meter(meterName), m)

	m.ComponentCounter.With("key", "requests").Add(2)
	m.ComponentCounter.With("key", "requests").Add(3)
	m.ComponentGauge.With("key", "queue").Set(7)
	m.ComponentGauge.With("key", "queue").Add(-2)
	m.ComponentGauge.With("key", "other").Add(1)
	m.ComponentTimer.With("key", "latency").Observe(12)
	m.RequestDurationHistogram.With("method", "predict").Observe(0.2)
	m.collectRuntimeStats()

	metrics := collect(t, reader)

	counter := metrics["seldon.component.counter"].Data.(metricdata.Sum[float64])
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, 5.0, counter.DataPoints[0].Value)
	v, ok := counter.DataPoints[0].Attributes.Value(attribute.Key("key"))
	assert.True(t, ok)
	assert.Equal(t, "requests", v.AsString())

	gauge := metrics["seldon.component.gauge"].Data.(metricdata.Gauge[float64])
	require.Len(t, gauge.DataPoints, 2)
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("key"))
		switch v.AsString() {
		case "queue":
			assert.Equal(t, 5.0, dp.Value)
		case "other":
			assert.Equal(t, 1.0, dp.Value)
		}
	}

	timer := metrics["seldon.component.timer"]
	assert.Equal(t, "ms", timer.Unit)
	assert.Equal(t, TimerBuckets, timer.Data.(metricdata.Histogram[float64]).DataPoints[0].Bounds)

	histogram := metrics["seldon.request.duration"].Data.(metricdata.Histogram[float64])
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)

	assert.Contains(t, metrics, "seldon.runtime.num_goroutine")
}

func TestLabelValues(t *testing.T) {
	lvs := LabelValues{}.With("a", "1", "b")
	assert.Equal(t, LabelValues{"a", "1", "b", "unknown"}, lvs)
	labels := lvs.ToLabels()
	assert.Len(t, labels, 2)
	assert.Equal(t, "unknown", labels[1].Value.AsString())
}

func TestTagLabels(t *testing.T) {
	assert.Equal(t, []string{"key", "k"}, TagLabels("k", nil))
	assert.Equal(t, []string{"key", "k", "model", "iris"}, TagLabels("k", map[string]string{"model": "iris", "KEY": "x"}))
}

func TestDiscard(t *testing.T) {
	m := Discard()
	m.ComponentCounter.With("key", "x").Add(1)
	m.CacheHitCounter.Add(1)
	assert.False(t, m.Enabled)
	assert.NoError(t, m.Stop())
}
