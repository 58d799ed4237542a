// Package logging builds the slog loggers used by the CLI and MCP server.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// levelSilent sits above every standard level so nothing is emitted.
const levelSilent = slog.Level(100)

// NewLogger creates a text logger writing to w at the given level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewDiscardLogger creates a logger that drops everything.
// Collectors fall back to it when no logger is supplied.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelSilent}))
}

// OrDiscard returns l, or a discard logger if l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return NewDiscardLogger()
	}
	return l
}

// LevelFromString converts a string to a slog.Level.
// Supports: debug, info, warn, error, off (case-insensitive).
// Returns slog.LevelWarn for unrecognized strings.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	case "off", "none", "quiet":
		return levelSilent
	default:
		return slog.LevelWarn
	}
}

// LevelFromFlags picks the effective level from CLI flags and the configured level.
// --quiet wins over everything, then --verbose, then the config value.
func LevelFromFlags(verbose, quiet bool, configured string) slog.Level {
	if quiet {
		return levelSilent
	}
	if verbose {
		return slog.LevelDebug
	}
	return LevelFromString(configured)
}
