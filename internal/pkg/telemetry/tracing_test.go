package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracerInstallsProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// The gRPC exporter connects lazily, so no collector is needed here.
	shutdown, err := InitTracer(context.Background(), "markermove-test", "127.0.0.1:4317", 0)
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	defer shutdown()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("global provider is %T, want *sdktrace.TracerProvider", otel.GetTracerProvider())
	}

	_, span := Tracer().Start(context.Background(), SpanFixIngest)
	if span.SpanContext().IsSampled() {
		t.Error("span sampled with ratio 0")
	}
	span.End()
}
