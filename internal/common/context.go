package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID  contextKey = "run_id"
	ContextKeyExamID contextKey = "exam_id"
)

// WithRunID tags a command invocation so every log line of one run can be grouped.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithExamID adds the fse ID being processed to the context
func WithExamID(ctx context.Context, examID string) context.Context {
	return context.WithValue(ctx, ContextKeyExamID, examID)
}

// ExamIDFromContext extracts the exam ID from context
func ExamIDFromContext(ctx context.Context) string {
	if examID, ok := ctx.Value(ContextKeyExamID).(string); ok {
		return examID
	}
	return ""
}

// LoggerFrom returns logger enriched with the run and exam IDs found in ctx.
func LoggerFrom(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	if id := ExamIDFromContext(ctx); id != "" {
		logger = logger.With("exam_id", id)
	}
	return logger
}
