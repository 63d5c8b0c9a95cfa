// Package resources provides MCP resources for the signed-in user.
// Resources are read-only data sources that MCP clients can fetch: the
// Microsoft Graph profile of the configured account and the effective
// planner settings.
package resources
