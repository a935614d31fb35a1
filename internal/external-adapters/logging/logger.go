// Package logging adapts log/slog to the domain Logger interface.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
)

// slogLogger implements interfaces.Logger on top of a slog.Logger
type slogLogger struct {
	logger *slog.Logger
}

// NewTextLogger writes key=value records at or above level to w
func NewTextLogger(w io.Writer, level string) interfaces.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return &slogLogger{logger: slog.New(handler)}
}

// NewSlogLogger wraps an existing slog.Logger
func NewSlogLogger(logger *slog.Logger) interfaces.Logger {
	return &slogLogger{logger: logger}
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func (l *slogLogger) Debug(msg string, fields ...interfaces.Field) {
	l.logger.Debug(msg, attrs(fields)...)
}

func (l *slogLogger) Info(msg string, fields ...interfaces.Field) {
	l.logger.Info(msg, attrs(fields)...)
}

func (l *slogLogger) Warn(msg string, fields ...interfaces.Field) {
	l.logger.Warn(msg, attrs(fields)...)
}

func (l *slogLogger) Error(msg string, fields ...interfaces.Field) {
	l.logger.Error(msg, attrs(fields)...)
}

func attrs(fields []interfaces.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, slog.String(f.Key, err.Error()))
			continue
		}
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// FileLogger is a text logger appending to a file
type FileLogger struct {
	interfaces.Logger
	file *os.File
}

// OpenFileLogger appends records to path, creating parent directories
func OpenFileLogger(path, level string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	//nolint:gosec // G304: log path comes from the plugin settings
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileLogger{Logger: NewTextLogger(file, level), file: file}, nil
}

// Close closes the underlying file
func (l *FileLogger) Close() error {
	return l.file.Close()
}
