package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrAccount   = "account"
)

var (
	httpBuckets  = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}
	graphBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
)

// Metrics records graphplanner's instruments. The zero value and a nil
// *Metrics record nothing, so callers never check for disabled metrics.
type Metrics struct {
	ready bool

	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	graphAPIOperationsTotal   metric.Int64Counter
	graphAPIOperationDuration metric.Float64Histogram

	authLoginTotal metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the account label to tool metrics
	detailedLabels bool
}

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s: %w", name, err))
		}
		return c
	}
	seconds := func(name, desc string, buckets []float64) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s: %w", name, err))
		}
		return h
	}

	m := &Metrics{
		detailedLabels: detailedLabels,

		httpRequestsTotal:   counter("http_requests_total", "Total number of HTTP requests", "{request}"),
		httpRequestDuration: seconds("http_request_duration_seconds", "HTTP request duration in seconds", httpBuckets),

		graphAPIOperationsTotal:   counter("graph_api_operations_total", "Total number of Microsoft Graph operations", "{operation}"),
		graphAPIOperationDuration: seconds("graph_api_operation_duration_seconds", "Microsoft Graph operation duration in seconds", graphBuckets),

		authLoginTotal: counter("auth_login_total", "Total number of account sign-in attempts", "{attempt}"),

		toolInvocationsTotal: counter("mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}"),
		toolDuration:         seconds("mcp_tool_duration_seconds", "MCP tool execution duration in seconds", graphBuckets),
	}

	sessions, err := meter.Int64UpDownCounter("active_sessions",
		metric.WithDescription("Number of connected MCP sessions"), metric.WithUnit("{session}"))
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to create active_sessions: %w", err))
	}
	m.activeSessions = sessions

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	m.ready = true
	return m, nil
}

func (m *Metrics) enabled() bool {
	return m != nil && m.ready
}

// RecordHTTPRequest records one request to the streamable HTTP transport
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if !m.enabled() {
		return
	}
	opt := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, opt)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordGraphAPIOperation records one data-access operation. service is a
// Service* area and operation one of the Operation* values.
func (m *Metrics) RecordGraphAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	opt := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.graphAPIOperationsTotal.Add(ctx, 1, opt)
	m.graphAPIOperationDuration.Record(ctx, duration.Seconds(), opt)
}

// RecordAuthLogin records a sign-in attempt by AuthMethod* and AuthResult*
func (m *Metrics) RecordAuthLogin(ctx context.Context, method, result string) {
	if !m.enabled() {
		return
	}
	m.authLoginTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrResult, result),
	))
}

// RecordToolInvocation records an MCP tool call. The account label is only
// added with detailed labels, since every account is a new series.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, account, status string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}
	opt := metric.WithAttributes(attrs...)
	m.toolInvocationsTotal.Add(ctx, 1, opt)
	m.toolDuration.Record(ctx, duration.Seconds(), opt)
}

func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m.enabled() {
		m.activeSessions.Add(ctx, 1)
	}
}

func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m.enabled() {
		m.activeSessions.Add(ctx, -1)
	}
}
