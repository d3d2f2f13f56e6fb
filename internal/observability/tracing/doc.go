// Package tracing provides OpenTelemetry tracing integration.
//
// It provides:
//   - Middleware, which traces each HTTP request handled by the wrapped
//     handler and extracts incoming trace context from request headers
//   - GetTracer, the application's global tracer
//   - StartJobSpan, which starts a span around one queue task execution
//
// It does not trace database queries and does not set up a tracer provider
// or exporter; spans go to whatever provider is registered with otel.
//
// Example usage:
//
//	import "feedrelay/internal/observability/tracing"
//
//	handler := tracing.Middleware(mux)
//
//	func runTask(ctx context.Context, taskType string) {
//	    ctx, span := tracing.StartJobSpan(ctx, taskType)
//	    defer span.End()
//	    // ... run the task ...
//	}
package tracing
