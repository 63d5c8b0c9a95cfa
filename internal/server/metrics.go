package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/graphplanner/internal/instrumentation"
)

const (
	DefaultMetricsAddr = ":9090"

	DefaultMetricsReadTimeout  = 10 * time.Second
	DefaultMetricsWriteTimeout = 10 * time.Second
	DefaultMetricsIdleTimeout  = 60 * time.Second

	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig configures the scrape endpoint.
type MetricsServerConfig struct {
	Addr string

	// Path of the scrape endpoint (default /metrics)
	Path string

	Enabled bool

	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves the Prometheus scrape endpoint on its own listener,
// away from the MCP endpoint.
type MetricsServer struct {
	httpServer *http.Server
	mux        *http.ServeMux
	addr       string
	path       string
}

// NewMetricsServer validates that the provider exports to Prometheus and
// builds the scrape mux.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	provider := config.InstrumentationProvider
	switch {
	case provider == nil:
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	case !provider.Enabled():
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	scrape := provider.PrometheusHandler()
	if scrape == nil {
		return nil, fmt.Errorf("metrics server requires the %q metrics exporter", instrumentation.ExporterPrometheus)
	}

	s := &MetricsServer{
		mux:  http.NewServeMux(),
		addr: config.Addr,
		path: config.Path,
	}
	if s.addr == "" {
		s.addr = DefaultMetricsAddr
	}
	if s.path == "" {
		s.path = instrumentation.DefaultScrapePath
	}

	s.mux.Handle(s.path, scrape)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s, nil
}

// Handler returns the mux serving the scrape path and /healthz
func (s *MetricsServer) Handler() http.Handler {
	return s.mux
}

// Start listens until Shutdown is called
func (s *MetricsServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	slog.Info("starting metrics server", "addr", s.addr, "path", s.path)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops a started server; it is a no-op otherwise
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listen address
func (s *MetricsServer) Addr() string {
	return s.addr
}

// Path returns the scrape path
func (s *MetricsServer) Path() string {
	return s.path
}
