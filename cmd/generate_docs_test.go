package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"auth_get_url", "Authentication Tools"},
		{"user_get_profile", "User Tools"},
		{"calendar_get_week", "Outlook Calendar Tools"},
		{"tasks_list", "SharePoint Task List Tools"},
		{"mail_send", "Other"},
		{"", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getCategoryFromToolName(tt.name))
		})
	}
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("tasks_get",
		mcp.WithDescription("Get tasks"),
		mcp.WithString("taskIds", mcp.Required(), mcp.Description("Task IDs")),
		mcp.WithString("account"),
	)

	md := generateToolMarkdown(tool)
	assert.Contains(t, md, "### tasks_get\n\nGet tasks\n\n")
	assert.Contains(t, md, "- `account` (optional): string parameter\n")
	assert.Contains(t, md, "- `taskIds` (required): Task IDs\n")
}

func TestRunGenerateDocs(t *testing.T) {
	t.Setenv("GRAPHPLANNER_CLIENT_ID", "")

	var out bytes.Buffer
	require.NoError(t, runGenerateDocs(&out, io.Discard, ""))

	md := out.String()
	assert.Contains(t, md, "when running graphplanner as an MCP server")
	assert.Contains(t, md, "- [Outlook Calendar Tools](#outlook-calendar-tools)")
	assert.Contains(t, md, "### calendar_create_event")
	assert.Contains(t, md, "### tasks_delete")
	assert.Contains(t, md, "### tasks_list\n\nList all tasks")
	assert.Contains(t, md, "## Multi-Account Support")

	path := filepath.Join(t.TempDir(), "tools.md")
	var status bytes.Buffer
	require.NoError(t, runGenerateDocs(io.Discard, &status, path))
	assert.Equal(t, "Tool reference written to "+path+"\n", status.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, md, string(data))
}

func TestGenerateToolMarkdown_Enum(t *testing.T) {
	tool := mcp.NewTool("calendar_get_week",
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("json", "ics")),
	)

	md := generateToolMarkdown(tool)
	assert.Contains(t, md, "- `format` (optional): Output format (one of: `json`, `ics`)\n")
}

func TestToolEffect(t *testing.T) {
	tests := []struct {
		tool mcp.Tool
		want string
	}{
		{mcp.NewTool("tasks_list", mcp.WithReadOnlyHintAnnotation(true)), "read-only"},
		{mcp.NewTool("tasks_create", mcp.WithReadOnlyHintAnnotation(false), mcp.WithDestructiveHintAnnotation(false)), "modifies data"},
		{mcp.NewTool("tasks_delete", mcp.WithReadOnlyHintAnnotation(false), mcp.WithDestructiveHintAnnotation(true)), "modifies data, destructive"},
	}
	for _, tt := range tests {
		t.Run(tt.tool.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, toolEffect(tt.tool))
			assert.Contains(t, generateToolMarkdown(tt.tool), "*"+tt.want+"*\n")
		})
	}
}
