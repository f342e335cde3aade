package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/tracing"
)

func TestInstallExportsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	cfg := configs.TracingConfig{
		ServiceName:    "pastevault-test",
		ServiceVersion: "v0",
		SampleRate:     1,
		ResourceLabels: map[string]string{"deployment.environment": "test"},
	}

	require.NoError(t, tracing.Install(cfg, exp))
	t.Cleanup(func() { _ = tracing.ShutdownTracer(context.Background()) })

	ctx, parent := tracing.StartSpan(context.Background(), "paste.create")
	_, child := tracing.StartSpan(ctx, "s3.put")
	child.End()
	parent.End()

	require.NoError(t, tracing.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "s3.put", spans[0].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())

	attrs := spans[1].Resource.Attributes()
	assert.Contains(t, attrs, attribute.String("service.name", "pastevault-test"))
	assert.Contains(t, attrs, attribute.String("deployment.environment", "test"))
}

func TestInitTracerDisabledAndUnsupported(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, tracing.InitTracer(ctx, configs.TracingConfig{Enabled: false, ExporterType: "bogus"}))
	assert.Error(t, tracing.InitTracer(ctx, configs.TracingConfig{Enabled: true, ExporterType: "bogus"}))
	assert.NoError(t, tracing.ShutdownTracer(ctx))
	assert.NoError(t, tracing.ForceFlush(ctx))
}
