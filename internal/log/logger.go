// Package log wraps log/slog with a component-tagged logger and the field
// names used across the service.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger that tags every record with its component.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// Output defaults to stdout.
	Output io.Writer
	// Handler overrides Output and Level when set.
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Component: ComponentApp}
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, config.Component),
		component: config.Component,
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent returns a child logger for another component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(FieldComponent, component), component: component}
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs logger as the slog default, so package level
// slog.InfoContext calls go through the same handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Component: ComponentApp, Output: io.Discard})
}

// LogError logs err with component and operation fields.
func (l *Logger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	l.ErrorContext(ctx, msg, fields.WithError(err).WithOperation(operation).ToSlice()...)
}
