package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSlogAdapter(t *testing.T) {
	assert.Same(t, slog.Default(), NewSlogAdapter(nil).Logger)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, logger, NewSlogAdapter(logger).Logger)
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	var l Logger = NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Debug("debug line", "account", "work")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line", "status", 500)

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG msg=\"debug line\" account=work")
	assert.Contains(t, out, "level=INFO msg=\"info line\"")
	assert.Contains(t, out, "level=WARN msg=\"warn line\"")
	assert.Contains(t, out, "level=ERROR msg=\"error line\" status=500")
}
