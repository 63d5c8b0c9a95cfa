package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/server"
)

// ToolHandler is the signature of an MCP tool handler
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return InstrumentedToolHandlerWithService(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// tags the span and the audit record with the Graph service area and
// operation the tool performs. Graph operation metrics are recorded by the
// data-access service itself.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("tasks_list", "tasks", "list", sc, handler))
func InstrumentedToolHandlerWithService(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := GetAccountFromArgs(request.GetArguments(), sc.Config().Account)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, account, serviceName, operation)
		defer span.End()

		// Get metrics and audit logger (may be nil if not configured)
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.StartToolInvocation(ctx, toolName, account)
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}
		if identity, err := sc.TokenStore().IdentityForAccount(account); err == nil {
			invocation.WithUser(identity.Username)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}
		instrumentation.FinishSpan(span, err)

		metrics.RecordToolInvocation(ctx, toolName, account, status, duration)
		auditLogger.Log(ctx, invocation.Finish(status, err))

		return result, err
	}
}
