// Package log provides the logging infrastructure for roam.
//
// Loggers are injected through constructors, never pulled from globals; each
// component adds its own context via logger.With("component", ...). The chat
// TUI owns stdout, so logs default to stderr.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config defines logger options.
type Config struct {
	// Level is the minimum level. Default: slog.LevelInfo.
	Level slog.Level

	// JSON switches output from text to JSON format.
	JSON bool

	// AddSource includes source file positions in entries.
	AddSource bool
}

// New creates a logger writing to os.Stderr.
func New(cfg Config) *slog.Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a logger writing to w. Useful in tests for capturing
// output.
func NewWithWriter(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// NewNop creates a logger that discards everything. Test use only.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a config string ("debug", "info", "warn", "error") to a
// slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
