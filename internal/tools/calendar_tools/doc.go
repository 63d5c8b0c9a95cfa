// Package calendar_tools provides MCP tools for the signed-in user's
// Outlook calendar: reading the current week and creating events.
package calendar_tools
