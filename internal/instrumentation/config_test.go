package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var instrumentationEnv = []string{
	"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER",
	"TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"PROMETHEUS_ENDPOINT", "AUDIT_LOGGING_INCLUDE_PII", "AUDIT_LOGGING_LEVEL",
}

func clearInstrumentationEnv(t *testing.T) {
	t.Helper()
	for _, key := range instrumentationEnv {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	clearInstrumentationEnv(t)

	cfg := DefaultConfig()
	assert.Equal(t, "graphplanner", cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.Equal(t, 0.1, cfg.TraceSamplingRate)
	assert.Equal(t, DefaultScrapePath, cfg.PrometheusEndpoint)
	assert.True(t, cfg.AuditLogging.Enabled)
	assert.False(t, cfg.AuditLogging.IncludePII)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	clearInstrumentationEnv(t)
	t.Setenv("OTEL_SERVICE_NAME", "planner-test")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", ExporterOTLP)
	t.Setenv("TRACING_EXPORTER", ExporterStdout)
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("PROMETHEUS_ENDPOINT", "/scrape")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")
	t.Setenv("AUDIT_LOGGING_LEVEL", "debug")

	cfg := DefaultConfig()
	assert.Equal(t, "planner-test", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterOTLP, cfg.MetricsExporter)
	assert.Equal(t, ExporterStdout, cfg.TracingExporter)
	assert.Equal(t, 0.5, cfg.TraceSamplingRate)
	assert.Equal(t, "collector:4318", cfg.OTLPEndpoint)
	assert.Equal(t, "/scrape", cfg.PrometheusEndpoint)
	assert.True(t, cfg.AuditLogging.IncludePII)
	assert.Equal(t, "debug", cfg.AuditLogging.LogLevel)
}

func TestDefaultConfig_InvalidValuesFallBack(t *testing.T) {
	clearInstrumentationEnv(t)
	t.Setenv("INSTRUMENTATION_ENABLED", "sometimes")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "most")

	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.1, cfg.TraceSamplingRate)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "prometheus",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "otlp traces with endpoint",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:    "negative sampling rate",
			config:  Config{TraceSamplingRate: -0.5},
			wantErr: "sampling rate",
		},
		{
			name:    "sampling rate above 1",
			config:  Config{TraceSamplingRate: 1.5},
			wantErr: "sampling rate",
		},
		{
			name:    "unknown metrics exporter",
			config:  Config{MetricsExporter: "statsd"},
			wantErr: "invalid metrics exporter",
		},
		{
			name:    "unknown tracing exporter",
			config:  Config{TracingExporter: "zipkin"},
			wantErr: "invalid tracing exporter",
		},
		{
			name:    "otlp traces without endpoint",
			config:  Config{TracingExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
		{
			name:    "otlp metrics without endpoint",
			config:  Config{MetricsExporter: ExporterOTLP},
			wantErr: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvReader(t *testing.T) {
	env := envReader(func(key string) (string, bool) {
		v, ok := map[string]string{
			"NAME":  "value",
			"EMPTY": "",
			"YES":   "true",
			"RATE":  "0.75",
		}[key]
		return v, ok
	})

	assert.Equal(t, "value", env.str("NAME", "def"))
	assert.Equal(t, "def", env.str("EMPTY", "def"))
	assert.Equal(t, "def", env.str("MISSING", "def"))
	assert.True(t, env.boolean("YES", false))
	assert.False(t, env.boolean("NAME", false))
	assert.Equal(t, 0.75, env.float("RATE", 0.5))
	assert.Equal(t, 0.5, env.float("NAME", 0.5))
	assert.Equal(t, 0.5, env.float("MISSING", 0.5))
}
