package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NoopExporter drops all spans. Used when tracing output is disabled but
// span creation should still work.
type NoopExporter struct{}

func (e *NoopExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (e *NoopExporter) Shutdown(ctx context.Context) error {
	return nil
}

// Init configures the global tracer for the process. When export is false,
// spans are created but never written anywhere.
func Init(serviceName string, export bool) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	if export {
		stdout, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		exporter = stdout
	} else {
		exporter = &NoopExporter{}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)

	otel.SetTracerProvider(provider)
	SetTracer(provider.Tracer(serviceName))

	return provider.Shutdown, nil
}
