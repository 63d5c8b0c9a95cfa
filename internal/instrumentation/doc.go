// Package instrumentation provides OpenTelemetry instrumentation for the
// graphplanner MCP server and the Microsoft Graph data-access layer.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active MCP sessions
//
// Graph API Metrics:
//   - graph_api_operations_total: Counter of Graph operations by service, operation, status
//   - graph_api_operation_duration_seconds: Histogram of Graph operation durations
//
// Sign-in Metrics:
//   - auth_login_total: Counter of sign-in attempts by method and result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// All Record methods are safe to call on a nil *Metrics.
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Graph operations (graph.<service>.<operation>)
//   - outgoing HTTP requests to Graph, via otelhttp
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: graphplanner)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordGraphAPIOperation(ctx, instrumentation.ServiceTasks, instrumentation.OperationList, instrumentation.StatusSuccess, time.Since(start))
//	recorder.RecordToolInvocation(ctx, "tasks_list", "work", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
