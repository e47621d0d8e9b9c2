package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldThreadID is the field name for conversation thread ID.
	LogFieldThreadID = "thread_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldToolName is the field name for a dispatched tool.
	LogFieldToolName = "tool_name"
	// LogFieldIteration is the field name for the turn loop iteration count.
	LogFieldIteration = "iteration"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext represents the context for a single chat turn with structured logging.
type RequestContext struct {
	RequestID string
	ThreadID  string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRequestContext creates a new request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, threadID string) *RequestContext {
	return &RequestContext{
		RequestID: uuid.New().String(),
		ThreadID:  threadID,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.combined(attrs)...)
}

// Debug logs a debug message.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.combined(attrs)...)
}

// Warn logs a warning message.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.combined(attrs)...)
}

// Error logs an error message with the error.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.combined(allAttrs)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) combined(attrs []slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldThreadID, r.ThreadID),
	}
	return append(base, attrs...)
}

// TruncateForLog truncates a string to a maximum rune length for logging.
func TruncateForLog(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
