package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures the process-wide logger
type Options struct {
	// Debug enables debug-level output
	Debug bool

	// Format is "text" (default) or "json"
	Format string

	// Output defaults to os.Stderr. The stdio MCP transport owns stdout,
	// so nothing else may write there.
	Output io.Writer
}

// NewLogger builds a slog.Logger from the options
func NewLogger(opts Options) (*slog.Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q: must be %q or %q", opts.Format, FormatText, FormatJSON)
	}
}

// Setup builds the logger and installs it as the slog default
func Setup(opts Options) (*slog.Logger, error) {
	logger, err := NewLogger(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
