// Package tooltest wires MCP tools to an in-memory Graph server for tests.
package tooltest

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"

	"github.com/teemow/graphplanner/internal/auth"
	"github.com/teemow/graphplanner/internal/config"
	"github.com/teemow/graphplanner/internal/graph"
	"github.com/teemow/graphplanner/internal/graph/graphtest"
	"github.com/teemow/graphplanner/internal/msgraph"
	"github.com/teemow/graphplanner/internal/server"
)

// Env is a server context bound to a fake Graph server
type Env struct {
	Graph *graphtest.Server
	SC    *server.ServerContext
}

// Option adjusts the configuration before the server context is built
type Option func(cfg *config.Config, opts *[]server.Option)

// WithClock fixes the time the services see
func WithClock(now time.Time) Option {
	return func(_ *config.Config, opts *[]server.Option) {
		*opts = append(*opts, server.WithServiceOptions(graph.WithClock(func() time.Time { return now })))
	}
}

// WithConfig edits the configuration
func WithConfig(fn func(cfg *config.Config)) Option {
	return func(cfg *config.Config, _ *[]server.Option) {
		fn(cfg)
	}
}

// NewEnv starts a fake Graph server and a server context whose "default"
// and "work" accounts hold valid tokens.
func NewEnv(t *testing.T, options ...Option) *Env {
	t.Helper()
	fake := graphtest.NewServer(t)

	cfg := config.DefaultConfig()
	cfg.SiteID = graphtest.SiteID
	cfg.ListID = graphtest.ListID
	cfg.TokenDir = t.TempDir()

	expiry := time.Now().Add(time.Hour)
	provider := auth.NewStaticTokenProvider(map[string]*oauth2.Token{
		"default": {AccessToken: "token-default", Expiry: expiry},
		"work":    {AccessToken: "token-work", Expiry: expiry},
	})
	opts := []server.Option{
		server.WithTokenProvider(provider),
		server.WithClientFactory(graph.DefaultClientFactory(msgraph.WithBaseURL(fake.URL))),
	}
	for _, o := range options {
		o(cfg, &opts)
	}

	sc, err := server.NewServerContext(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create server context: %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })

	return &Env{Graph: fake, SC: sc}
}

// Request builds a tool call with the given arguments
func Request(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// Text joins the text content of a tool result
func Text(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ToolNames lists the tools registered on s, sorted
func ToolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to encode tools/list response: %v", err)
	}

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to decode tools/list response: %v", err)
	}

	names := make([]string, 0, len(decoded.Result.Tools))
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}
