package helixdb

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with helixdb-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithLabel adds a label field to the logger.
func (l *Logger) WithLabel(label string) *Logger {
	return &Logger{
		Logger: l.Logger.With("label", label),
	}
}

// WithID adds an id field to the logger (useful for tagging operations).
func (l *Logger) WithID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// LogCreate logs an entity creation.
func (l *Logger) LogCreate(ctx context.Context, kind, id, label string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"kind", kind,
			"label", label,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "create completed",
			"kind", kind,
			"id", id,
			"label", label,
		)
	}
}

// LogDrop logs an entity removal.
func (l *Logger) LogDrop(ctx context.Context, kind, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drop failed",
			"kind", kind,
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "drop completed",
			"kind", kind,
			"id", id,
		)
	}
}

// LogSearch logs a vector search.
func (l *Logger) LogSearch(ctx context.Context, label string, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"label", label,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"label", label,
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogBackup logs a backup or restore operation.
func (l *Logger) LogBackup(ctx context.Context, op string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "backup operation failed",
			"op", op,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "backup operation completed",
			"op", op,
		)
	}
}
