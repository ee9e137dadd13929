// Package logger builds the zerolog loggers used across cashsync.
package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey is the type for context keys used by the logger.
type ContextKey string

// LoggerKey is the context key for the logger instance.
const LoggerKey ContextKey = "logger"

// Options controls logger construction.
type Options struct {
	Level  string    // debug, info, warn, error (default: info)
	Format string    // console or json (default: console)
	File   string    // optional log file, always written at debug level
	Out    io.Writer // console sink (default: os.Stderr)
}

// New creates a structured logger from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	level := ParseLevel(opts.Level)

	var console io.Writer = out
	if strings.ToLower(opts.Format) != "json" {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	if opts.File == "" {
		return zerolog.New(console).Level(level).With().Timestamp().Logger()
	}

	writer := zerolog.MultiLevelWriter(
		levelWriter{Writer: console, min: level},
		levelWriter{Writer: fileWriter(opts.File), min: zerolog.DebugLevel},
	)
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// ParseLevel converts a string log level to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext adds the logger to the context.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
			return logger
		}
	}
	return New(Options{})
}

func fileWriter(path string) io.Writer {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
	}
}

// levelWriter drops events below min before they reach the wrapped writer.
type levelWriter struct {
	io.Writer
	min zerolog.Level
}

func (w levelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < w.min {
		return len(p), nil
	}
	return w.Write(p)
}
