package tracing

import (
	"context"
	"testing"

	"github.com/AminuIsrael/seldon-core/config/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewDisabled(t *testing.T) {
	tracer, err := New(&modules.TracingConfig{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, tracer)
	assert.NoError(t, tracer.Stop(context.Background()))
}

func TestNewEnabled(t *testing.T) {
	cfg := &modules.TracingConfig{
		Enabled:      true,
		SamplingRate: 1,
		Opentelemetry: modules.OpentelemetryTracing{
			Protocol: modules.OtlpProtocolHTTP,
			Endpoint: "http://127.0.0.1:4318/v1/traces",
		},
	}
	tracer, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.NoError(t, tracer.Stop(context.Background()))
}

func TestStart(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(prev)

	ctx, span := Start(context.Background(), "component.Predict")
	_, child := Start(ctx, "child")
	child.End()
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "child", spans[0].Name)
	assert.Equal(t, "component.Predict", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}
