package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/graphplanner/internal/config"
	"github.com/teemow/graphplanner/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Write the MCP tool reference as markdown",
		Long: `Write the MCP tool reference as markdown.

The reference is built from the tools the server registers, including the
write tools hidden by --read-only, so it always matches the binary. No
account needs to be signed in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), cmd.ErrOrStderr(), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runGenerateDocs(stdout, stderr io.Writer, output string) error {
	sc, err := server.NewServerContext(context.Background(), config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("building server context: %w", err)
	}
	defer func() { _ = sc.Shutdown() }()

	mcpSrv, err := newMCPServer(sc, false)
	if err != nil {
		return err
	}

	var tools []mcp.Tool
	for _, registered := range mcpSrv.ListTools() {
		tools = append(tools, registered.Tool)
	}
	doc := generateToolsMarkdown(tools)

	if output == "" {
		_, err = io.WriteString(stdout, doc)
		return err
	}
	if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(stderr, "Tool reference written to %s\n", output)
	return nil
}

const docsHeader = `# MCP Tools Reference

This document provides a complete reference of all tools available when running graphplanner as an MCP server.

**Note:** This documentation is automatically generated from the tool definitions.

`

const multiAccountSection = `## Multi-Account Support

Every Microsoft Graph tool takes an optional ` + "`account`" + ` argument naming the signed-in account to use.
Without it the configured account (` + "`default`" + ` unless changed) is used. Sign in further accounts
with ` + "`graphplanner auth login --account NAME`" + ` or the ` + "`auth_get_url`" + ` and ` + "`auth_save_code`" + ` tools.

Tools marked *modifies data* are not registered when the server runs with ` + "`--read-only`" + `.

`

func generateToolsMarkdown(tools []mcp.Tool) string {
	sections := make(map[string][]mcp.Tool)
	for _, t := range tools {
		c := getCategoryFromToolName(t.Name)
		sections[c] = append(sections[c], t)
	}
	order := slices.Sorted(maps.Keys(sections))

	var b strings.Builder
	b.WriteString(docsHeader)
	b.WriteString("## Contents\n\n")
	for _, c := range order {
		fmt.Fprintf(&b, "- [%s](#%s)\n", c, strings.ToLower(strings.ReplaceAll(c, " ", "-")))
	}
	b.WriteString("\n" + multiAccountSection)

	for _, c := range order {
		fmt.Fprintf(&b, "## %s\n\n", c)
		section := sections[c]
		slices.SortFunc(section, func(x, y mcp.Tool) int { return strings.Compare(x.Name, y.Name) })
		for _, t := range section {
			b.WriteString(generateToolMarkdown(t) + "\n")
		}
	}
	return b.String()
}

// toolCategories maps tool name prefixes to documentation sections
var toolCategories = map[string]string{
	"auth":     "Authentication Tools",
	"user":     "User Tools",
	"calendar": "Outlook Calendar Tools",
	"tasks":    "SharePoint Task List Tools",
}

func getCategoryFromToolName(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	if category, ok := toolCategories[prefix]; ok {
		return category
	}
	return "Other"
}

// toolEffect describes a tool from its annotations
func toolEffect(tool mcp.Tool) string {
	a := tool.Annotations
	switch {
	case a.ReadOnlyHint != nil && *a.ReadOnlyHint:
		return "read-only"
	case a.DestructiveHint != nil && *a.DestructiveHint:
		return "modifies data, destructive"
	default:
		return "modifies data"
	}
}

func generateToolMarkdown(tool mcp.Tool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}
	fmt.Fprintf(&sb, "*%s*\n\n", toolEffect(tool))

	if len(tool.InputSchema.Properties) == 0 {
		return sb.String()
	}

	sb.WriteString("**Arguments:**\n")
	for _, name := range slices.Sorted(maps.Keys(tool.InputSchema.Properties)) {
		prop, ok := tool.InputSchema.Properties[name].(map[string]any)
		if !ok {
			continue
		}
		required := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "required"
		}

		desc, ok := prop["description"].(string)
		if !ok {
			desc = propertyType(prop) + " parameter"
		}
		fmt.Fprintf(&sb, "- `%s` (%s): %s", name, required, desc)
		if values, ok := prop["enum"].([]string); ok && len(values) > 0 {
			fmt.Fprintf(&sb, " (one of: `%s`)", strings.Join(values, "`, `"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func propertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
