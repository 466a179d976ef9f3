// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// OperationIDKey is the context key for the identifier of one
	// conversion run.
	OperationIDKey ContextKey = "operation_id"
)

var (
	mu sync.Mutex
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
	// output receives log records. Data goes to stdout, so logs do not.
	output io.Writer = os.Stderr
)

func init() {
	// Initialize with a default logger (text format, Warn level)
	InitLogger(LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps a configuration string to a Level. Unknown names map to
// LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat maps a configuration string to a Format. Anything but
// "json" is text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// SetOutput redirects future loggers created by InitLogger to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitLogger initializes the global logger with the specified level and format.
func InitLogger(level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	mu.Lock()
	defer mu.Unlock()
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger
}

// WithOperationID adds an operation ID to the context.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, OperationIDKey, id)
}

// GetOperationID retrieves the operation ID from the context.
func GetOperationID(ctx context.Context) string {
	if id, ok := ctx.Value(OperationIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := GetLogger()
	if id := GetOperationID(ctx); id != "" {
		logger = logger.With("operation_id", id)
	}
	return logger
}

// Helper functions for common logging patterns

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// CodecEvent logs a completed decode or encode.
func CodecEvent(ctx context.Context, operation, format, path string, seriesCount int, duration time.Duration, args ...any) {
	allArgs := []any{
		"operation", operation,
		"format", format,
		"path", path,
		"series", seriesCount,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("codec", allArgs...)
}

// CodecError logs a fatal codec failure.
func CodecError(ctx context.Context, operation, format, path string, err error, args ...any) {
	allArgs := []any{
		"operation", operation,
		"format", format,
		"path", path,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Error("codec_error", allArgs...)
}

// DiagnosticSummary logs the warning count of one file.
func DiagnosticSummary(ctx context.Context, format, path string, warnings int, args ...any) {
	allArgs := []any{
		"format", format,
		"path", path,
		"warnings", warnings,
	}
	allArgs = append(allArgs, args...)
	logger := LoggerFromContext(ctx)
	if warnings > 0 {
		logger.Warn("diagnostics", allArgs...)
		return
	}
	logger.Debug("diagnostics", allArgs...)
}

// StoreEvent logs a write to the content-addressed store.
func StoreEvent(hash string, size int64, args ...any) {
	allArgs := []any{
		"hash", hash,
		"size", size,
	}
	allArgs = append(allArgs, args...)
	GetLogger().Info("store_put", allArgs...)
}

// CatalogEvent logs a catalog update.
func CatalogEvent(operation, path string, seriesCount int, args ...any) {
	allArgs := []any{
		"operation", operation,
		"path", path,
		"series", seriesCount,
	}
	allArgs = append(allArgs, args...)
	GetLogger().Info("catalog", allArgs...)
}
