package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TracerProvider supplies tracers to the cloner and lets the host flush and
// stop span export on exit. Hosts that already run an OpenTelemetry SDK can
// hand their own implementation in.
type TracerProvider interface {
	// GetTracer returns a named Tracer.
	GetTracer(name string, opts ...trace.TracerOption) trace.Tracer

	// Shutdown flushes buffered spans and releases exporters. It is a no-op
	// for providers that never export.
	Shutdown(ctx context.Context) error
}
