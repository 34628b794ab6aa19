// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the default logger for packages that sit below the HTTP layer.
var Logger *slog.Logger

func init() {
	Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetLogger replaces the package logger; the server installs its context-aware logger here.
func SetLogger(l *slog.Logger) {
	if l != nil {
		Logger = l
	}
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

// LogWrite logs a mutating repository operation at debug level.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, fields map[string]any) {
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	Logger.DebugContext(ctx, "repository write", attrs...)
}

// LogError logs a failed repository operation.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	Logger.ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogJobStart logs the start of a background job run.
func LogJobStart(ctx context.Context, job string, fields map[string]any) {
	attrs := []any{slog.String("job", job)}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	Logger.InfoContext(ctx, "job started", attrs...)
}

// LogJobEnd logs the successful completion of a background job run.
func LogJobEnd(ctx context.Context, job string, fields map[string]any) {
	attrs := []any{slog.String("job", job)}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	Logger.InfoContext(ctx, "job finished", attrs...)
}

// LogJobError logs a failed background job run.
func LogJobError(ctx context.Context, job string, err error) {
	Logger.ErrorContext(ctx, "job failed", slog.String("job", job), slog.String("error", err.Error()))
}
