package tracing

import (
	"context"
	"fmt"
	"net"
	"net/url"

	seldon "github.com/AminuIsrael/seldon-core"
	"github.com/AminuIsrael/seldon-core/config/modules"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/encoding/gzip"
)

const serviceName = "seldon-core-microservice"

// SetupOTEL installs a batching tracer provider exporting over OTLP as the
// global provider, together with the propagators named by OTEL_PROPAGATORS.
func SetupOTEL(ctx context.Context, o *modules.TracingConfig) (*sdktrace.TracerProvider, error) {
	client, err := newClient(o.Opentelemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}

	res, err := newResource(ctx, o.Attributes)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.SamplingRate))),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())
	return provider, nil
}

func newResource(ctx context.Context, attrs map[string]string) (*resource.Resource, error) {
	kvs := make([]attribute.KeyValue, 0, len(attrs)+2)
	kvs = append(kvs,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(seldon.VERSION),
	)
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	return resource.New(ctx, resource.WithAttributes(kvs...), resource.WithFromEnv())
}

func newClient(c modules.OpentelemetryTracing) (otlptrace.Client, error) {
	switch c.Protocol {
	case modules.OtlpProtocolHTTP:
		endpoint, err := url.Parse(c.Endpoint)
		if err != nil || endpoint.Host == "" {
			return nil, fmt.Errorf("invalid collector endpoint %q", c.Endpoint)
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(endpoint.Host),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		}
		if endpoint.Scheme == "http" {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if endpoint.Path != "" {
			opts = append(opts, otlptracehttp.WithURLPath(endpoint.Path))
		}
		return otlptracehttp.NewClient(opts...), nil
	case modules.OtlpProtocolGRPC:
		hostport := c.Endpoint
		if u, err := url.Parse(c.Endpoint); err == nil && u.Host != "" {
			hostport = u.Host
		}
		if _, _, err := net.SplitHostPort(hostport); err != nil {
			return nil, fmt.Errorf("invalid collector endpoint %q: %w", c.Endpoint, err)
		}
		return otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(hostport),
			otlptracegrpc.WithCompressor(gzip.Name),
			otlptracegrpc.WithInsecure(),
		), nil
	}
	return nil, fmt.Errorf("unsupported protocol %q", c.Protocol)
}
