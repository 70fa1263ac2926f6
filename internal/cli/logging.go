package cli

import (
	"io"
	"log/slog"
	"os"
)

// NewLoggers returns the progress and error loggers for a command.
// Both write JSON to stderr; stdout is reserved for command output.
func NewLoggers(level slog.Level) (*slog.Logger, *slog.Logger) {
	return NewLoggersTo(os.Stderr, level)
}

// NewLoggersTo returns the logger pair writing to w. Records from the error
// logger carry stream=error so they can be told apart in a shared file.
func NewLoggersTo(w io.Writer, level slog.Level) (*slog.Logger, *slog.Logger) {
	progress := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: timestampKey,
	}))
	return progress, progress.With("stream", "error")
}

func timestampKey(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{Key: "timestamp", Value: a.Value}
	}
	return a
}

// ParseLogLevelOrDefault parses names like "debug" or "WARN" and offsets
// like "info+2". Anything else yields info.
func ParseLogLevelOrDefault(levelStr string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return slog.LevelInfo
	}
	return level
}
