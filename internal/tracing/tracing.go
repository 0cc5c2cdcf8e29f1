package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of every replica span.
const TracerName = "github.com/gxo-labs/replica"

// Span attribute keys.
const (
	AttrType           = attribute.Key("replica.type")
	AttrExcludedFields = attribute.Key("replica.excluded_fields")
	AttrCloneID        = attribute.Key("replica.clone_id")
)

// RecordError marks span as failed with err. It does nothing for a nil
// error or a span that is not recording.
func RecordError(span oteltrace.Span, err error) {
	if err == nil || span == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
