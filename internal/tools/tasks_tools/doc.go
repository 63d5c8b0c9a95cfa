// Package tasks_tools provides MCP tools for the SharePoint task list.
//
// # Available Tools
//
//   - tasks_list: List all tasks, with a report of missing or malformed columns
//   - tasks_get: Get one or more tasks
//   - tasks_create: Create a task
//   - tasks_update: Replace all columns of a task
//   - tasks_delete: Delete one or more tasks
//
// The write tools are not registered in read-only mode.
//
// # Multi-Account Support
//
// All tools support an optional 'account' parameter to specify which token
// account to use. If not provided, the configured account is used.
package tasks_tools
