package poster

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with poster-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// LogCreate logs the construction of a poster.
func (l *Logger) LogCreate(ctx context.Context, title string, r Retention, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"title", title,
			"retention", r.String(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "poster created",
		"title", title,
		"retention", r.String(),
	)
}

// LogSave logs a write of a compiled file.
func (l *Logger) LogSave(ctx context.Context, path string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "poster saved",
		"path", path,
		"bytes", size,
	)
}

// LogReload logs a body reload after reclamation.
func (l *Logger) LogReload(ctx context.Context, path string, size int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "body reload failed",
			"path", path,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "body reloaded",
		"path", path,
		"bytes", size,
	)
}

// LogParse logs the rehydration of a poster from bytes.
func (l *Logger) LogParse(ctx context.Context, path string, size int, err error) {
	if err != nil {
		l.WarnContext(ctx, "parse failed",
			"path", path,
			"bytes", size,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "poster parsed",
		"path", path,
		"bytes", size,
	)
}
