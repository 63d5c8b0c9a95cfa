// Package common provides shared utilities for MCP tool implementations:
// account resolution, error results and the instrumentation wrapper every
// tool is registered with.
package common
