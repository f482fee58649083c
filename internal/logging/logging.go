// Package logging builds the structured loggers used by the pipeline and
// the command line tool.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with pipeline-specific helpers so every event
// carries the same field names.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to w. level is one of debug, info, warn or
// error; format is text or json. A nil w writes to stderr.
func New(level, format string, w io.Writer) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}
	return &Logger{Logger: slog.New(h)}, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Noop returns a Logger that discards all output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

// WithPath tags the logger with an input path.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{Logger: l.Logger.With("path", path)}
}

// LogImport logs the outcome of detecting, reading and importing a file.
func (l *Logger) LogImport(adapter, kind string, elapsed time.Duration, err error) {
	if err != nil {
		l.Warn("import failed",
			"adapter", adapter,
			"error", err,
		)
		return
	}
	l.Info("import completed",
		"adapter", adapter,
		"object", kind,
		"elapsed", elapsed,
	)
}

// LogStage logs one filter or mapper run.
func (l *Logger) LogStage(stage, from, to string, err error) {
	if err != nil {
		l.Warn("stage failed",
			"stage", stage,
			"input", from,
			"error", err,
		)
		return
	}
	l.Debug("stage applied",
		"stage", stage,
		"input", from,
		"output", to,
	)
}

// LogRender logs renderer binding.
func (l *Logger) LogRender(renderer, kind string, auto bool, err error) {
	if err != nil {
		l.Warn("renderer unavailable",
			"object", kind,
			"error", err,
		)
		return
	}
	l.Info("renderer bound",
		"renderer", renderer,
		"object", kind,
		"auto", auto,
	)
}
