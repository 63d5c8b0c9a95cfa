package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Label values and exporter names
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	AuthResultSuccess = "success"
	AuthResultFailure = "failure"

	AuthMethodCode   = "code"
	AuthMethodDevice = "device"

	ServiceUser     = "user"
	ServiceCalendar = "calendar"
	ServiceTasks    = "tasks"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
	DefaultScrapePath     = "/metrics"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Config selects exporters and resource attributes. DefaultConfig reads it
// from the standard OTEL_* variables plus a few graphplanner specific ones.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	Enabled         bool
	MetricsExporter string
	TracingExporter string

	// OTLPEndpoint is host:port without scheme. OTLPInsecure disables TLS and
	// is meant for a local collector only.
	OTLPEndpoint string
	OTLPInsecure bool

	TraceSamplingRate float64

	// PrometheusEndpoint is the scrape path of the metrics server
	PrometheusEndpoint string

	// DetailedLabels adds the account label to tool metrics
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the per tool call audit log.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII logs the signed-in username instead of its domain and hash
	IncludePII bool

	// LogLevel of successful calls; failures are logged at warn or above
	LogLevel string
}

// DefaultConfig returns the configuration from the environment
func DefaultConfig() Config {
	e := envReader(os.LookupEnv)
	return Config{
		ServiceName:        e.str("OTEL_SERVICE_NAME", "graphplanner"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  e.str("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       e.str("K8S_NAMESPACE", e.str("POD_NAMESPACE", "")),
		K8sPodName:         e.str("K8S_POD_NAME", ""),
		Enabled:            e.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    e.str("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    e.str("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       e.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       e.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  e.float("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: e.str("PROMETHEUS_ENDPOINT", DefaultScrapePath),
		DetailedLabels:     e.boolean("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    e.boolean("AUDIT_LOGGING_ENABLED", true),
			IncludePII: e.boolean("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   e.str("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate checks exporter names, the sampling rate and that OTLP exporters
// have an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" {
		if c.MetricsExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required for the otlp metrics exporter")
		}
		if c.TracingExporter == ExporterOTLP {
			return fmt.Errorf("OTLP endpoint is required for the otlp tracing exporter")
		}
	}
	return nil
}

// envReader reads typed values, falling back to the default when a variable
// is unset, empty or does not parse.
type envReader func(key string) (string, bool)

func (e envReader) str(key, def string) string {
	if v, ok := e(key); ok && v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	b, err := strconv.ParseBool(e.str(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return b
}

func (e envReader) float(key string, def float64) float64 {
	f, err := strconv.ParseFloat(e.str(key, ""), 64)
	if err != nil {
		return def
	}
	return f
}
