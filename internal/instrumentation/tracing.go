package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of graphplanner spans
const TracerName = "github.com/teemow/graphplanner"

// Span attribute keys
const (
	AttrTool         = "mcp.tool"
	AttrAccount      = "mcp.account"
	AttrService      = "graph.service"
	AttrOperation    = "graph.operation"
	AttrResourceType = "graph.resource_type"
	AttrResourceID   = "graph.resource_id"
	AttrTimeZone     = "graph.time_zone"
)

// Resource types of Graph objects addressed by ID
const (
	ResourceListItem = "list_item"
	ResourceEvent    = "event"
)

// ResourceAttrs identifies the Graph object an operation addresses. An empty
// id yields no attributes.
func ResourceAttrs(resourceType, id string) []attribute.KeyValue {
	if id == "" {
		return nil
	}
	return []attribute.KeyValue{
		attribute.String(AttrResourceType, resourceType),
		attribute.String(AttrResourceID, id),
	}
}

// TimeZoneAttr records the time zone calendar times were requested in
func TimeZoneAttr(timeZone string) attribute.KeyValue {
	return attribute.String(AttrTimeZone, timeZone)
}

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartToolSpan starts the server span tool.<name> of an MCP tool call.
// The Graph service and operation are recorded when service is set.
func StartToolSpan(ctx context.Context, toolName, account, service, operation string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(AttrTool, toolName)}
	if account != "" {
		attrs = append(attrs, attribute.String(AttrAccount, account))
	}
	if service != "" {
		attrs = append(attrs,
			attribute.String(AttrService, service),
			attribute.String(AttrOperation, operation))
	}
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer))
}

// StartGraphAPISpan starts the client span graph.<service>.<operation>
func StartGraphAPISpan(ctx context.Context, service, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		attribute.String(AttrService, service),
		attribute.String(AttrOperation, operation),
	}, attrs...)
	return tracer().Start(ctx, "graph."+service+"."+operation,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient))
}

// FinishSpan sets the span status from err. The caller still ends the span.
func FinishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
