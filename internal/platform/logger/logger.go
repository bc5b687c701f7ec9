// Package logger provides structured logging for the locker server.
// Every grid command should be traceable through this.
package logger

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options tunes the underlying hclog logger.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// Logger provides structured logging with context.
type Logger struct {
	base hclog.Logger
}

// NewLogger creates a logger with default options.
func NewLogger() *Logger {
	return New(Options{})
}

// New creates a logger instance from opts.
func New(opts Options) *Logger {
	if opts.Name == "" {
		opts.Name = "lockers"
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return &Logger{
		base: hclog.New(&hclog.LoggerOptions{
			Name:                     opts.Name,
			Level:                    level,
			Output:                   opts.Output,
			JSONFormat:               opts.JSON,
			IncludeLocation:          true,
			AdditionalLocationOffset: 1,
		}),
	}
}

// Named returns a sub-logger for a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{base: l.base.Named(name)}
}

// Debug logs verbose diagnostics.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.base.Debug(msg, args...)
}

// Info logs informational messages.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.base.Info(msg, args...)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.base.Warn(msg, args...)
}

// Error logs error messages.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.base.Error(msg, args...)
}

// Event logs a grid event with the actor that issued it.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.base.Info("event", "type", eventType, "actor", actorID, "details", details)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{base: hclog.NewNullLogger()}
}
