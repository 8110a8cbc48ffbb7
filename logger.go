package vsearch

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with vsearch-specific context.
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

// WithDocument adds a document id field to the logger.
func (l *Logger) WithDocument(id int32) *Logger {
	return &Logger{
		Logger: l.Logger.With("document", id),
	}
}

// WithComponent tags log lines with the emitting component (e.g. "index", "store").
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogVocabulary logs a vocabulary save.
func (l *Logger) LogVocabulary(ctx context.Context, path string, tokens int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "vocabulary save failed",
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "vocabulary saved",
			"path", path,
			"tokens", tokens,
		)
	}
}

// LogIngest logs a single document ingest.
func (l *Logger) LogIngest(ctx context.Context, id int32, dimensions int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ingest failed",
			"document", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "ingest completed",
			"document", id,
			"dimensions", dimensions,
		)
	}
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, documents, dimensions int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"documents", documents,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index build completed",
			"documents", documents,
			"dimensions", dimensions,
			"elapsed", elapsed,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, topN, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"top_n", topN,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"top_n", topN,
			"results", resultsFound,
		)
	}
}
