// Package zerologadapter provides a zerolog-backed implementation of the
// records observability interfaces for users who already run zerolog.
package zerologadapter

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/AntonStoeckl/customer-records-go/records"
)

// Logger implements records.Logger and records.ContextualLogger on top of zerolog.
// Args come in key-value pairs like slog; non-string keys are skipped.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger wraps an existing zerolog.Logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// NewDefaultLogger creates a logger writing RFC3339-timestamped entries to the given writer.
func NewDefaultLogger(output io.Writer, level zerolog.Level) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()

	return &Logger{logger: logger}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.emit(l.logger.Debug(), msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.emit(l.logger.Info(), msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.emit(l.logger.Warn(), msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.emit(l.logger.Error(), msg, args...)
}

// DebugContext logs a debug message; the context is accepted for interface
// compatibility, zerolog carries no per-call trace correlation by itself.
func (l *Logger) DebugContext(_ context.Context, msg string, args ...any) {
	l.Debug(msg, args...)
}

// InfoContext logs an info message.
func (l *Logger) InfoContext(_ context.Context, msg string, args ...any) {
	l.Info(msg, args...)
}

// WarnContext logs a warning message.
func (l *Logger) WarnContext(_ context.Context, msg string, args ...any) {
	l.Warn(msg, args...)
}

// ErrorContext logs an error message.
func (l *Logger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.Error(msg, args...)
}

func (l *Logger) emit(event *zerolog.Event, msg string, args ...any) {
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			if key, ok := args[i].(string); ok {
				event = event.Interface(key, args[i+1])
			}
		}
	}

	event.Msg(msg)
}

// Ensure Logger implements records.Logger.
var _ records.Logger = (*Logger)(nil)

// Ensure Logger implements records.ContextualLogger.
var _ records.ContextualLogger = (*Logger)(nil)
