// Package cmd implements the command-line interface for graphplanner.
//
// This package provides the following commands:
//   - auth: Sign Microsoft accounts in and out (url, save-code, login, status, logout)
//   - me: Show the signed-in user's profile
//   - calendar: Show the current week or create an event
//   - tasks: List, get, create, update and delete items of the task list
//   - config: Show or initialize the config file
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
