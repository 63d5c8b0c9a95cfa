package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

const (
	testEmail        = "jane@example.com"
	testDomain       = "example.com"
	testAccount      = "work"
	testToolTasks    = "tasks_list"
	testToolCalendar = "calendar_create_event"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestStartToolInvocation(t *testing.T) {
	ti := StartToolInvocation(context.Background(), testToolTasks, testAccount)

	if ti.Tool != testToolTasks {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolTasks)
	}
	if ti.Account != testAccount {
		t.Errorf("Account = %q, want %q", ti.Account, testAccount)
	}
	if ti.Started.IsZero() {
		t.Error("Started should not be zero")
	}
	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("trace = %q/%q, want empty without a span", ti.TraceID, ti.SpanID)
	}
}

func TestStartToolInvocation_WithSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	ti := StartToolInvocation(ctx, testToolTasks, testAccount)
	if ti.TraceID != traceID.String() {
		t.Errorf("TraceID = %q, want %q", ti.TraceID, traceID.String())
	}
	if ti.SpanID != spanID.String() {
		t.Errorf("SpanID = %q, want %q", ti.SpanID, spanID.String())
	}
}

func TestToolInvocation_Finish(t *testing.T) {
	ti := StartToolInvocation(context.Background(), testToolCalendar, testAccount).
		Finish(StatusError, errors.New("permission denied"))

	if ti.Succeeded() {
		t.Error("Succeeded() = true, want false")
	}
	if ti.Error != "permission denied" {
		t.Errorf("Error = %q, want %q", ti.Error, "permission denied")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}

	ok := StartToolInvocation(context.Background(), testToolTasks, testAccount).Finish(StatusSuccess, nil)
	if !ok.Succeeded() || ok.Error != "" {
		t.Errorf("got %+v, want success without error", ok)
	}
}

func TestToolInvocation_Attrs(t *testing.T) {
	ti := StartToolInvocation(context.Background(), testToolTasks, testAccount).
		WithUser(testEmail).
		WithService(ServiceTasks, OperationList).
		Finish(StatusSuccess, nil)

	t.Run("anonymized", func(t *testing.T) {
		attrs := attrMap(ti.Attrs(false))
		if attrs["tool"] != testToolTasks {
			t.Errorf("tool = %q", attrs["tool"])
		}
		if attrs["account"] != testAccount {
			t.Errorf("account = %q", attrs["account"])
		}
		if attrs["user_domain"] != testDomain {
			t.Errorf("user_domain = %q, want %q", attrs["user_domain"], testDomain)
		}
		if _, ok := attrs["user"]; ok {
			t.Error("user must not be logged without PII")
		}
		if attrs["user_hash"] == "" {
			t.Error("user_hash should be set")
		}
		if attrs["service"] != ServiceTasks || attrs["operation"] != OperationList {
			t.Errorf("service/operation = %q/%q", attrs["service"], attrs["operation"])
		}
	})

	t.Run("with PII", func(t *testing.T) {
		attrs := attrMap(ti.Attrs(true))
		if attrs["user"] != testEmail {
			t.Errorf("user = %q, want %q", attrs["user"], testEmail)
		}
		if _, ok := attrs["user_hash"]; ok {
			t.Error("user_hash should not be set with PII")
		}
	})

	t.Run("minimal", func(t *testing.T) {
		attrs := attrMap(StartToolInvocation(context.Background(), "auth_get_url", "default").Finish(StatusSuccess, nil).Attrs(false))
		for _, key := range []string{"user_domain", "service", "trace_id", "error"} {
			if _, ok := attrs[key]; ok {
				t.Errorf("unexpected attribute %q", key)
			}
		}
	})
}

func TestAuditLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	al := NewAuditLogger(logger, AuditLoggingConfig{Enabled: true, LogLevel: "debug"})

	al.Log(context.Background(), StartToolInvocation(context.Background(), testToolTasks, testAccount).
		WithUser(testEmail).
		Finish(StatusSuccess, nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "tool_executed" || entry["level"] != "DEBUG" {
		t.Errorf("msg/level = %v/%v, want tool_executed/DEBUG", entry["msg"], entry["level"])
	}
	if entry["component"] != "audit" {
		t.Errorf("component = %v, want audit", entry["component"])
	}
	if _, ok := entry["user"]; ok {
		t.Error("user must not be logged without PII")
	}

	buf.Reset()
	al.Log(context.Background(), StartToolInvocation(context.Background(), testToolCalendar, testAccount).
		Finish(StatusError, errors.New("boom")))
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "tool_failed" || entry["level"] != "WARN" {
		t.Errorf("msg/level = %v/%v, want tool_failed/WARN", entry["msg"], entry["level"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})

	al.Log(context.Background(), StartToolInvocation(context.Background(), testToolTasks, testAccount).Finish(StatusSuccess, nil))
	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}

	var nilLogger *AuditLogger
	nilLogger.Log(context.Background(), nil)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
