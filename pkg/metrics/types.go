package metrics

import (
	"context"
	"strings"
	"sync"

	"github.com/go-kit/kit/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// DurationBuckets are the request duration boundaries in seconds.
	DurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	// TimerBuckets are the component timer boundaries in milliseconds.
	TimerBuckets = []float64{1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
)

// LabelValues is a flat list of alternating label names and values.
type LabelValues []string

func (lvs LabelValues) With(labelValues ...string) LabelValues {
	if len(labelValues)%2 != 0 {
		labelValues = append(labelValues, "unknown")
	}
	out := make(LabelValues, 0, len(lvs)+len(labelValues))
	out = append(out, lvs...)
	return append(out, labelValues...)
}

func (lvs LabelValues) ToLabels() []attribute.KeyValue {
	labels := make([]attribute.KeyValue, len(lvs)/2)
	for i := range labels {
		labels[i] = attribute.String(lvs[2*i], lvs[2*i+1])
	}
	return labels
}

func (lvs LabelValues) option() metric.MeasurementOption {
	return metric.WithAttributes(lvs.ToLabels()...)
}

// key identifies the attribute set regardless of label order.
func (lvs LabelValues) key() string {
	set := attribute.NewSet(lvs.ToLabels()...)
	return string(set.Encoded(attribute.DefaultEncoder()))
}

type Counter struct {
	lvs LabelValues
	c   metric.Float64Counter
}

func NewCounter(meter metric.Meter, name string, desc string) *Counter {
	c, _ := meter.Float64Counter(name, metric.WithDescription(desc), metric.WithUnit("1"))
	return &Counter{c: c}
}

func (c *Counter) With(labelValues ...string) metrics.Counter {
	return &Counter{lvs: c.lvs.With(labelValues...), c: c.c}
}

func (c *Counter) Add(delta float64) {
	c.c.Add(context.Background(), delta, c.lvs.option())
}

// gaugeValues holds the last value of every attribute set of a gauge so Add
// can be applied on top of it.
type gaugeValues struct {
	mu     sync.Mutex
	values map[string]float64
}

type Gauge struct {
	lvs    LabelValues
	g      metric.Float64Gauge
	values *gaugeValues
}

func NewGauge(meter metric.Meter, name string, desc string) *Gauge {
	g, _ := meter.Float64Gauge(name, metric.WithDescription(desc), metric.WithUnit("1"))
	return &Gauge{
		g:      g,
		values: &gaugeValues{values: make(map[string]float64)},
	}
}

func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	return &Gauge{lvs: g.lvs.With(labelValues...), g: g.g, values: g.values}
}

func (g *Gauge) Set(value float64) {
	g.values.mu.Lock()
	g.values.values[g.lvs.key()] = value
	g.values.mu.Unlock()
	g.g.Record(context.Background(), value, g.lvs.option())
}

func (g *Gauge) Add(delta float64) {
	g.values.mu.Lock()
	k := g.lvs.key()
	value := g.values.values[k] + delta
	g.values.values[k] = value
	g.values.mu.Unlock()
	g.g.Record(context.Background(), value, g.lvs.option())
}

type Histogram struct {
	lvs LabelValues
	h   metric.Float64Histogram
}

func NewHistogram(meter metric.Meter, name string, desc string, unit string, buckets []float64) *Histogram {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, _ := meter.Float64Histogram(name, opts...)
	return &Histogram{h: h}
}

func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	return &Histogram{lvs: h.lvs.With(labelValues...), h: h.h}
}

func (h *Histogram) Observe(value float64) {
	h.h.Record(context.Background(), value, h.lvs.option())
}

// TagLabels converts component metric tags to label values. The key label
// comes first; tags named key are dropped.
func TagLabels(key string, tags map[string]string) []string {
	labels := []string{"key", key}
	for k, v := range tags {
		if strings.EqualFold(k, "key") {
			continue
		}
		labels = append(labels, k, v)
	}
	return labels
}
