// Package logging sets up structured logging shared by every component of
// the recognition engine.
package logging

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger writing JSON in production-style mode and
// human-readable text otherwise.
func New(json bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// defaultLogger is the package-wide logger used by components that do not
// receive one explicitly (e.g. adapters constructed deep in the CLI).
var defaultLogger = New(false, slog.LevelInfo)

// Default returns the shared default logger.
func Default() *slog.Logger { return defaultLogger }

// SetDefault replaces the shared default logger, used by cmd/cadence once
// it has parsed its configuration.
func SetDefault(l *slog.Logger) { defaultLogger = l }
