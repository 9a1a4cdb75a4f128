package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the service's own spans
const TracerName = "github.com/erp/urlsync"

// Span attribute keys
const (
	SpanAttrCategoryID  = "category.id"
	SpanAttrCategoryIDs = "category.ids"
	SpanAttrParentID    = "category.parent_id"
	SpanAttrStoreID     = "store.id"
)

// StartSpan starts an internal span from the global tracer provider.
// The caller must end the returned span.
//
//	ctx, span := telemetry.StartSpan(ctx, "url_regeneration.completed",
//	    attribute.Int64Slice(telemetry.SpanAttrCategoryIDs, ids))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError records err on the span and marks the span as failed
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
