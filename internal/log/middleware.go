package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware stores logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// RequestIDMiddleware enriches the context logger with the request ID.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			if requestID == "" {
				next.ServeHTTP(w, r)
				return
			}
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides domain-level log lines with consistent fields.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs)
	fields[FieldClientIP] = clientIP

	sl.logger.LogLevel(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpenseAdded logs a successfully recorded expense.
func (sl *StructuredLogger) LogExpenseAdded(ctx context.Context, id, amountCents int64, category, date string, version uint64) {
	fields := NewFields().
		WithExpense(id, amountCents, category, date).
		WithVersion(version).
		WithOperation(OpAdd)
	sl.logger.InfoContext(ctx, "Expense added", fields.ToSlice()...)
}

// LogExpenseRemoved logs a removal attempt and whether it matched a record.
func (sl *StructuredLogger) LogExpenseRemoved(ctx context.Context, id int64, removed bool, version uint64) {
	fields := NewFields().WithVersion(version).WithOperation(OpRemove)
	fields[FieldExpenseID] = id
	fields["removed"] = removed
	sl.logger.InfoContext(ctx, "Expense removal processed", fields.ToSlice()...)
}

// LogError logs an error together with its operation and category.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation, errorType string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithError(err).WithOperation(operation).WithErrorType(errorType).
		WithRequestID(requestIDFrom(ctx))
	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}

// RequestIDContextKey is the key the trace middleware stores request IDs under.
// It mirrors trace.RequestIDKey so this package does not import trace.
const RequestIDContextKey ContextKey = "request_id"

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}
