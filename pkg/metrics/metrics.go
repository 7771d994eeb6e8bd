package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/AminuIsrael/seldon-core/pkg/schedule"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"go.uber.org/zap"
)

type Metrics struct {
	ctx    context.Context
	cancel context.CancelFunc
	// collecting is closed once the runtime stats loop has exited
	collecting <-chan struct{}

	Enabled  bool
	Interval time.Duration

	// runtime metrics

	RuntimeGoroutine    metrics.Gauge
	RuntimeAlloc        metrics.Gauge
	RuntimeSys          metrics.Gauge
	RuntimeMallocs      metrics.Gauge
	RuntimeFrees        metrics.Gauge
	RuntimeHeapObjects  metrics.Gauge
	RuntimePauseTotalNs metrics.Gauge
	RuntimeGC           metrics.Gauge

	// server metrics

	RequestCounter           metrics.Counter
	RequestDurationHistogram metrics.Histogram

	// custom metrics reported by components

	ComponentCounter metrics.Counter
	ComponentGauge   metrics.Gauge
	ComponentTimer   metrics.Histogram

	// persistence metrics

	PersistencePushCounter   metrics.Counter
	PersistenceFailedCounter metrics.Counter

	// prediction cache metrics

	CacheHitCounter  metrics.Counter
	CacheMissCounter metrics.Counter
}

// Discard returns metrics whose instruments drop every observation.
func Discard() *Metrics {
	ctx, cancel := context.WithCancel(context.Background())
	return &Metrics{
		ctx:                      ctx,
		cancel:                   cancel,
		RuntimeGoroutine:         discard.NewGauge(),
		RuntimeAlloc:             discard.NewGauge(),
		RuntimeSys:               discard.NewGauge(),
		RuntimeMallocs:           discard.NewGauge(),
		RuntimeFrees:             discard.NewGauge(),
		RuntimeHeapObjects:       discard.NewGauge(),
		RuntimePauseTotalNs:      discard.NewGauge(),
		RuntimeGC:                discard.NewGauge(),
		RequestCounter:           discard.NewCounter(),
		RequestDurationHistogram: discard.NewHistogram(),
		ComponentCounter:         discard.NewCounter(),
		ComponentGauge:           discard.NewGauge(),
		ComponentTimer:           discard.NewHistogram(),
		PersistencePushCounter:   discard.NewCounter(),
		PersistenceFailedCounter: discard.NewCounter(),
		CacheHitCounter:          discard.NewCounter(),
		CacheMissCounter:         discard.NewCounter(),
	}
}

func (m *Metrics) Stop() error {
	m.cancel()
	if m.collecting != nil {
		<-m.collecting
	}
	if m.Enabled {
		return StopOpentelemetry()
	}
	return nil
}

func New(cfg modules.MetricsConfig) (*Metrics, error) {
	m := Discard()
	m.Enabled = len(cfg.Exports) > 0

	if m.Enabled {
		m.Interval = time.Second * time.Duration(cfg.PushInterval)
		err := SetupOpentelemetry(cfg.Attributes, cfg.Opentelemetry, m)
		if err != nil {
			return nil, err
		}
		m.collecting = schedule.Every(m.ctx, m.Interval, m.collectRuntimeStats)
		zap.S().Infof("enabled metric exports: %v", cfg.Exports)
	}

	return m, nil
}

func (m *Metrics) collectRuntimeStats() {
	m.RuntimeGoroutine.Set(float64(runtime.NumGoroutine()))

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.RuntimeAlloc.Set(float64(stats.Alloc))
	m.RuntimeSys.Set(float64(stats.Sys))
	m.RuntimeMallocs.Set(float64(stats.Mallocs))
	m.RuntimeFrees.Set(float64(stats.Frees))
	m.RuntimeHeapObjects.Set(float64(stats.HeapObjects))
	m.RuntimePauseTotalNs.Set(float64(stats.PauseTotalNs))
	m.RuntimeGC.Set(float64(stats.NumGC))
}
