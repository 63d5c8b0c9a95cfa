package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/graphplanner/internal/instrumentation"
	"github.com/teemow/graphplanner/internal/logging"
)

// MCPEndpointPath is where the streamable HTTP transport is served
const MCPEndpointPath = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport
type HTTPServerConfig struct {
	// Addr is the listen address, e.g. ":8080"
	Addr string

	// DisableStreaming makes /mcp answer with plain JSON responses only
	DisableStreaming bool

	// Health serves /healthz, /readyz and /healthz/detailed when set
	Health *HealthChecker

	// Metrics records http_requests_total and http_request_duration_seconds
	Metrics *instrumentation.Metrics

	Logger logging.Logger
}

// HTTPServer serves an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	config     HTTPServerConfig
	httpServer *http.Server
	mu         sync.Mutex
}

// NewHTTPServer creates the HTTP transport for an MCP server
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.Logger == nil {
		config.Logger = logging.NewSlogAdapter(nil)
	}
	return &HTTPServer{
		mcpServer: mcpServer,
		config:    config,
	}, nil
}

// Handler returns the instrumented request multiplexer
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
		mcpserver.WithDisableStreaming(s.config.DisableStreaming),
	)
	mux.Handle(MCPEndpointPath, streamable)

	if s.config.Health != nil {
		s.config.Health.RegisterHealthEndpoints(mux)
	}

	return s.instrumentationMiddleware(mux)
}

// Start listens on the configured address and blocks until shutdown
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.config.Logger.Info("starting MCP HTTP server", "addr", s.config.Addr, "endpoint", MCPEndpointPath)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.config.Logger.Info("shutting down MCP HTTP server")
	return srv.Shutdown(ctx)
}

// responseWriter captures the status code for request metrics
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamed MCP responses working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// knownPaths bounds the cardinality of the path label
var knownPaths = map[string]bool{
	MCPEndpointPath:     true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

func metricPath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

func (s *HTTPServer) instrumentationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.Metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.config.Metrics.RecordHTTPRequest(r.Context(), r.Method, metricPath(r.URL.Path), rw.statusCode, time.Since(start))
	})
}

// SessionHooks keeps the active_sessions gauge in step with MCP client
// sessions. Pass the result to mcpserver.WithHooks.
func SessionHooks(metrics *instrumentation.Metrics) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		metrics.IncrementActiveSessions(ctx)
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		metrics.DecrementActiveSessions(ctx)
	})
	return hooks
}
