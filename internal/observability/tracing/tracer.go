package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the feedrelay application.
var tracer = otel.Tracer("feedrelay")

// GetTracer returns the global tracer for creating spans.
// This tracer can be used throughout the application to create new spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}

// StartJobSpan starts a span around one queue task execution, tagged with
// its task_type so a slow sync/deliver/clean run is traceable end to end.
func StartJobSpan(ctx context.Context, taskType string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "job."+taskType,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("task_type", taskType)),
	)
	return ctx, span
}
