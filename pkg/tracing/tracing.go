package tracing

import (
	"context"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/AminuIsrael/seldon-core"

// Tracer owns the SDK tracer provider installed as the global provider.
type Tracer struct {
	provider *sdktrace.TracerProvider
}

// New installs an OpenTelemetry tracer provider. It returns nil when tracing
// is disabled.
func New(conf *modules.TracingConfig) (*Tracer, error) {
	if !conf.Enabled {
		return nil, nil
	}

	provider, err := SetupOTEL(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Tracer{provider: provider}, nil
}

// Start starts a span with the global tracer. Spans are no-ops unless a
// Tracer was created.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, spanName, opts...)
}

// Stop flushes pending spans and shuts the provider down.
func (t *Tracer) Stop(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
