package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Logger is a key/value structured logger shared by every component.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a text logger writing to stdout at the given level.
// Unknown or empty levels fall back to info.
func NewLogger(level string) *Logger {
	return New(os.Stdout, level, "text")
}

// New builds a logger with the given writer, level and format ("text" or "json").
func New(w io.Writer, level, format string) *Logger {
	lvl, err := charmlog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = charmlog.InfoLevel
	}

	formatter := charmlog.TextFormatter
	if strings.EqualFold(format, "json") {
		formatter = charmlog.JSONFormatter
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           lvl,
		Formatter:       formatter,
	})

	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(io.Discard, "error", "text")
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
