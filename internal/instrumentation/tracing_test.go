package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// recordSpans installs a recording tracer provider for the test
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrsOf(span sdktrace.ReadOnlySpan) map[attribute.Key]string {
	m := map[attribute.Key]string{}
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value.Emit()
	}
	return m
}

func TestStartToolSpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartToolSpan(context.Background(), "tasks_list", "work", ServiceTasks, OperationList)
	FinishSpan(span, nil)
	span.End()

	_, bare := StartToolSpan(context.Background(), "auth_get_url", "", "", "")
	bare.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "tool.tasks_list", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, map[attribute.Key]string{
		AttrTool:      "tasks_list",
		AttrAccount:   "work",
		AttrService:   ServiceTasks,
		AttrOperation: OperationList,
	}, attrsOf(ended[0]))

	assert.Equal(t, map[attribute.Key]string{AttrTool: "auth_get_url"}, attrsOf(ended[1]))
}

func TestStartGraphAPISpan(t *testing.T) {
	recorder := recordSpans(t)

	_, span := StartGraphAPISpan(context.Background(), ServiceTasks, OperationDelete,
		ResourceAttrs(ResourceListItem, "42")...)
	FinishSpan(span, errors.New("item not found"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	got := ended[0]

	assert.Equal(t, "graph.tasks.delete", got.Name())
	assert.Equal(t, trace.SpanKindClient, got.SpanKind())
	assert.Equal(t, codes.Error, got.Status().Code)
	assert.Equal(t, "item not found", got.Status().Description)
	require.Len(t, got.Events(), 1, "the error is recorded as an event")

	attrs := attrsOf(got)
	assert.Equal(t, ResourceListItem, attrs[AttrResourceType])
	assert.Equal(t, "42", attrs[AttrResourceID])
}

func TestResourceAttrs(t *testing.T) {
	assert.Nil(t, ResourceAttrs(ResourceEvent, ""))
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(AttrResourceType, ResourceEvent),
		attribute.String(AttrResourceID, "AAMk"),
	}, ResourceAttrs(ResourceEvent, "AAMk"))
}

func TestTimeZoneAttr(t *testing.T) {
	assert.Equal(t, attribute.String(AttrTimeZone, "Europe/Berlin"), TimeZoneAttr("Europe/Berlin"))
}

func TestSpansWithoutProvider(t *testing.T) {
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tracenoop.NewTracerProvider())
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, span := StartGraphAPISpan(context.Background(), ServiceUser, OperationGet)
	FinishSpan(span, nil)
	span.End()
	assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
}
