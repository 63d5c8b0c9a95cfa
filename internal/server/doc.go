// Package server provides the composition root and HTTP surface of the
// graphplanner MCP server.
//
// # Key Components
//
// ServerContext owns one graph.Service per account, created on first use.
// Each service keeps a single authenticated Graph client until
// Reauthenticate is called after a new token was saved. Tokens come from a
// TokenProvider:
//   - FileTokenProvider: tokens saved by 'graphplanner auth', refreshed on demand
//   - StaticTokenProvider: fixed tokens, used in tests
//
// HTTPServer serves the MCP server over streamable HTTP on /mcp next to the
// health endpoints, recording request metrics for every call.
//
// HealthChecker provides /healthz, /readyz and /healthz/detailed.
//
// MetricsServer exposes the Prometheus scrape endpoint on its own port.
package server
