package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/graphplanner/internal/logging"
)

// ToolInvocation is the audit record of one MCP tool call.
//
// User is the signed-in username taken from the account's ID token. It is
// only logged verbatim when the audit logger includes PII; otherwise the
// domain and a hash are logged.
type ToolInvocation struct {
	Tool    string
	Account string
	User    string

	// Graph service area (user, calendar, tasks) and operation
	Service   string
	Operation string

	Started  time.Time
	Duration time.Duration
	Status   string
	Error    string

	TraceID string
	SpanID  string
}

// StartToolInvocation begins the record of a tool call, picking up the trace
// of the span in ctx.
func StartToolInvocation(ctx context.Context, tool, account string) *ToolInvocation {
	ti := &ToolInvocation{
		Tool:    tool,
		Account: account,
		Started: time.Now(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// WithService records the Graph service area and operation the tool performs
func (ti *ToolInvocation) WithService(service, operation string) *ToolInvocation {
	ti.Service = service
	ti.Operation = operation
	return ti
}

// WithUser records the signed-in user
func (ti *ToolInvocation) WithUser(user string) *ToolInvocation {
	ti.User = user
	return ti
}

// Finish stops the clock. A tool that returned an error result without a Go
// error still finishes with StatusError and err == nil.
func (ti *ToolInvocation) Finish(status string, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.Started)
	ti.Status = status
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Succeeded reports whether the call finished with StatusSuccess
func (ti *ToolInvocation) Succeeded() bool {
	return ti.Status == StatusSuccess
}

// UserDomain returns the domain of User, or "unknown"
func (ti *ToolInvocation) UserDomain() string {
	return ExtractUserDomain(ti.User)
}

// Attrs returns the log attributes of the record. Without includePII the
// user is reduced to its domain and a hash.
func (ti *ToolInvocation) Attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		logging.Account(ti.Account),
		logging.Status(ti.Status),
		logging.Duration(ti.Duration),
	}
	if ti.User != "" {
		if includePII {
			attrs = append(attrs, slog.String("user", ti.User))
		} else {
			attrs = append(attrs, logging.UserDomain(ti.UserDomain()), logging.UserHash(ti.User))
		}
	}
	if ti.Service != "" {
		attrs = append(attrs, logging.Service(ti.Service), logging.Operation(ti.Operation))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// AuditLogger writes one line per tool call
type AuditLogger struct {
	logger     *slog.Logger
	level      slog.Level
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an audit logger. A nil logger means slog.Default().
func NewAuditLogger(logger *slog.Logger, cfg AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		level:      parseLevel(cfg.LogLevel),
		includePII: cfg.IncludePII,
		enabled:    cfg.Enabled,
	}
}

// Log writes the record. Successful calls are logged at the configured
// level, failed calls at least at warn.
func (al *AuditLogger) Log(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	level, msg := al.level, "tool_executed"
	if !ti.Succeeded() {
		msg = "tool_failed"
		if level < slog.LevelWarn {
			level = slog.LevelWarn
		}
	}
	al.logger.LogAttrs(ctx, level, msg, ti.Attrs(al.includePII)...)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
