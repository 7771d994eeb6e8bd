package metrics

import (
	"context"
	"fmt"
	"time"

	seldon "github.com/AminuIsrael/seldon-core"
	"github.com/AminuIsrael/seldon-core/config/modules"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	prefix    = "seldon."
	meterName = "github.com/AminuIsrael/seldon-core"
)

func newHTTPExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(endpoint),
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

func newGRPCExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	}
	return otlpmetricgrpc.New(context.Background(), opts...)
}

func SetupOpentelemetry(attributes map[string]string, cfg modules.OpentelemetryMetrics, metrics *Metrics) error {
	var err error
	var exporter metric.Exporter
	switch cfg.Protocol {
	case modules.OtlpProtocolHTTP:
		exporter, err = newHTTPExporter(cfg.Endpoint)
	case modules.OtlpProtocolGRPC:
		exporter, err = newGRPCExporter(cfg.Endpoint)
	}
	if err != nil {
		return fmt.Errorf("failed to setup exporter: %v", err)
	}

	// custom attributes
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for name, value := range attributes {
		attrs = append(attrs, attribute.String(name, value))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("seldon-core-microservice")),
		resource.WithAttributes(semconv.ServiceVersionKey.String(seldon.VERSION)),
		resource.WithFromEnv(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return fmt.Errorf("failed to build resource: %w", err)
	}

	opts := []metric.PeriodicReaderOption{
		metric.WithInterval(metrics.Interval),
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter, opts...)),
	)
	otel.SetMeterProvider(meterProvider)

	registerInstruments(meterProvider.Meter(meterName), metrics)
	return nil
}

func registerInstruments(meter otelmetric.Meter, metrics *Metrics) {
	// server metrics
	metrics.RequestCounter = NewCounter(meter, prefix+"request.total", "")
	metrics.RequestDurationHistogram = NewHistogram(meter, prefix+"request.duration", "", "s", DurationBuckets)

	// runtime metrics
	metrics.RuntimeGoroutine = NewGauge(meter, prefix+"runtime.num_goroutine", "")
	metrics.RuntimeAlloc = NewGauge(meter, prefix+"runtime.alloc_bytes", "")
	metrics.RuntimeSys = NewGauge(meter, prefix+"runtime.sys_bytes", "")
	metrics.RuntimeMallocs = NewGauge(meter, prefix+"runtime.mallocs", "")
	metrics.RuntimeFrees = NewGauge(meter, prefix+"runtime.frees", "")
	metrics.RuntimeHeapObjects = NewGauge(meter, prefix+"runtime.heap_objects", "")
	metrics.RuntimePauseTotalNs = NewGauge(meter, prefix+"runtime.pause_total_ns", "")
	metrics.RuntimeGC = NewGauge(meter, prefix+"runtime.num_gc", "")

	// component metrics
	metrics.ComponentCounter = NewCounter(meter, prefix+"component.counter", "custom counters reported by the component")
	metrics.ComponentGauge = NewGauge(meter, prefix+"component.gauge", "custom gauges reported by the component")
	metrics.ComponentTimer = NewHistogram(meter, prefix+"component.timer", "custom timers reported by the component", "ms", TimerBuckets)

	// persistence metrics
	metrics.PersistencePushCounter = NewCounter(meter, prefix+"persistence.push.total", "")
	metrics.PersistenceFailedCounter = NewCounter(meter, prefix+"persistence.push.failed", "")

	// cache metrics
	metrics.CacheHitCounter = NewCounter(meter, prefix+"cache.hit", "")
	metrics.CacheMissCounter = NewCounter(meter, prefix+"cache.miss", "")
}

func StopOpentelemetry() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if provider, ok := otel.GetMeterProvider().(*metric.MeterProvider); ok {
		return provider.Shutdown(ctx)
	}
	return nil
}
