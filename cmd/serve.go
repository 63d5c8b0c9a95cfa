package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/logging"
	"github.com/teemow/graphplanner/internal/resources"
	"github.com/teemow/graphplanner/internal/server"
	"github.com/teemow/graphplanner/internal/tools/auth_tools"
	"github.com/teemow/graphplanner/internal/tools/calendar_tools"
	"github.com/teemow/graphplanner/internal/tools/tasks_tools"
	"github.com/teemow/graphplanner/internal/tools/user_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig selects where the Prometheus scrape endpoint listens. It is
// only served with the streamable-http transport.
type MetricsConfig struct {
	Enabled bool
	Addr    string

	// Path comes from PROMETHEUS_ENDPOINT
	Path string
}

// serveOptions are the flags of the serve command
type serveOptions struct {
	transport        string
	httpAddr         string
	readOnly         bool
	disableStreaming bool
	metrics          MetricsConfig
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide calendar and
task list tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Read-only Mode:
  Use --read-only to hide the tools that create, update or delete data.

Authentication:
  Accounts are signed in with 'graphplanner auth login' or through the
  auth_get_url and auth_save_code tools. Tokens are refreshed automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.metrics.applyEnv(cmd.Flags().Changed)
			return runServe(root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Only register tools that do not modify data")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyEnv lets METRICS_ADDR and METRICS_ENABLED=false override the metrics
// flags that were not set on the command line.
func (c *MetricsConfig) applyEnv(flagSet func(name string) bool) {
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok && v != "" && !flagSet("metrics-addr") {
		c.Addr = v
	}
	if v, ok := os.LookupEnv("METRICS_ENABLED"); ok && v == "false" && !flagSet("metrics-enabled") {
		c.Enabled = false
	}
}

func runServe(root *rootOptions, opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()

	telemetry := instrumentation.DefaultConfig()
	telemetry.ServiceVersion = version
	opts.metrics.Path = telemetry.PrometheusEndpoint

	provider, err := instrumentation.NewProvider(ctx, telemetry)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	sc, err := root.serverContext(ctx)
	if err != nil {
		return fmt.Errorf("building server context: %w", err)
	}
	defer func() {
		if err := sc.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if provider.Enabled() {
		sc.SetMetrics(provider.Metrics())
		sc.SetAuditLogger(instrumentation.NewAuditLogger(logger, telemetry.AuditLogging))
	}

	mcpSrv, err := newMCPServer(sc, opts.readOnly, mcpserver.WithHooks(server.SessionHooks(sc.Metrics())))
	if err != nil {
		return err
	}

	if opts.readOnly {
		logger.Info("starting server in read-only mode")
	}

	if opts.transport == transportStdio {
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			return fmt.Errorf("stdio server: %w", err)
		}
		return nil
	}
	return runStreamableHTTPServer(ctx, mcpSrv, sc, opts, provider)
}

// newMCPServer creates the MCP server with every tool and resource registered
func newMCPServer(sc *server.ServerContext, readOnly bool, opts ...mcpserver.ServerOption) (*mcpserver.MCPServer, error) {
	base := []mcpserver.ServerOption{
		mcpserver.WithToolCapabilities(true),
		// neither subscribe nor listChanged
		mcpserver.WithResourceCapabilities(false, false),
	}
	mcpSrv := mcpserver.NewMCPServer("graphplanner", version, append(base, opts...)...)
	if err := registerAllTools(mcpSrv, sc, readOnly); err != nil {
		return nil, err
	}
	return mcpSrv, nil
}

// registerAllTools adds every tool group and the user resources. Write tools
// are left out when readOnly is set.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	groups := []struct {
		name     string
		register func() error
	}{
		{"auth tools", func() error { return auth_tools.RegisterAuthTools(mcpSrv, sc) }},
		{"user tools", func() error { return user_tools.RegisterUserTools(mcpSrv, sc) }},
		{"calendar tools", func() error { return calendar_tools.RegisterCalendarTools(mcpSrv, sc, readOnly) }},
		{"task list tools", func() error { return tasks_tools.RegisterTasksTools(mcpSrv, sc, readOnly) }},
		{"user resources", func() error { return resources.RegisterUserResources(mcpSrv, sc) }},
	}
	for _, g := range groups {
		if err := g.register(); err != nil {
			return fmt.Errorf("registering %s: %w", g.name, err)
		}
	}
	return nil
}

// startMetricsServer starts the Prometheus endpoint. A nil server means
// metrics are disabled or not served by the configured exporter.
func startMetricsServer(metricsConfig MetricsConfig, provider *instrumentation.Provider) (*server.MetricsServer, <-chan error, error) {
	if !metricsConfig.Enabled || !provider.Enabled() || provider.PrometheusHandler() == nil {
		return nil, nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Enabled:                 metricsConfig.Enabled,
		Addr:                    metricsConfig.Addr,
		Path:                    metricsConfig.Path,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	return metricsServer, runInBackground(metricsServer.Start), nil
}

// runInBackground runs start on its own goroutine. The returned channel
// yields its error, if any, and is closed when start returns. A clean
// http.ErrServerClosed is not reported.
func runInBackground(start func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
		}
	}()
	return done
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions, provider *instrumentation.Provider) error {
	logger := slog.Default()

	metricsServer, metricsErr, err := startMetricsServer(opts.metrics, provider)
	if err != nil {
		return err
	}
	defer func() {
		if metricsServer == nil {
			return
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			logger.Warn("error during metrics server shutdown", logging.Err(err))
		}
	}()

	health := server.NewHealthChecker(sc)
	health.SetVersion(version)

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             opts.httpAddr,
		DisableStreaming: opts.disableStreaming,
		Health:           health,
		Metrics:          sc.Metrics(),
		Logger:           logging.NewSlogAdapter(logger),
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	logger.Info("streamable HTTP server starting",
		"addr", opts.httpAddr,
		"endpoint", server.MCPEndpointPath,
		"health", "/healthz, /readyz",
		"metrics_enabled", metricsServer != nil,
	)

	httpErr := runInBackground(httpServer.Start)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		stopCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("shutting down HTTP server: %w", err)
		}
	case err := <-httpErr:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	case err := <-metricsErr:
		if err != nil {
			logger.Error("metrics server stopped", logging.Err(err))
			return fmt.Errorf("metrics server: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
