package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New sets up a slog logger writing to w with level and format from arguments.
// logLevel: "info", "debug", "warn", "error"
// logFormat: "json" or "text"
// A nil w writes to stderr. The logger is not installed as the slog default.
func New(logLevel, logFormat string, w io.Writer) (*slog.Logger, error) {
	if strings.TrimSpace(logLevel) == "" || strings.TrimSpace(logFormat) == "" {
		return nil, errors.New("logLevel and logFormat must not be empty")
	}
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "info":
		level = slog.LevelInfo
	default:
		return nil, errors.New("invalid logLevel: " + logLevel)
	}

	if w == nil {
		w = os.Stderr
	}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		return nil, errors.New("invalid logFormat: " + logFormat)
	}

	return slog.New(handler), nil
}

// NewFile opens path for appending and returns a logger writing to it.
// The returned close function closes the file.
func NewFile(logLevel, logFormat, path string) (*slog.Logger, func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	l, err := New(logLevel, logFormat, f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return l, f.Close, nil
}
