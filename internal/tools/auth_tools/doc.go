// Package auth_tools provides MCP tools for signing Microsoft accounts in
// through the authorization code flow and inspecting stored sign-ins.
package auth_tools
