// Package logging configures log/slog for graphplanner and defines the
// attribute names shared by the CLI, the MCP tools and the Graph service.
//
// Logs always go to stderr: in stdio mode stdout carries the MCP protocol.
//
//	logger := logging.WithAccount(slog.Default(), "work")
//	logger.Info("listing tasks", logging.Operation("tasks.list"), logging.Status("success"))
//
// Usernames are logged as a hash (UserHash) or a domain (UserDomain), and
// tokens only through SanitizeToken.
package logging
