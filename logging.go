package reviews

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelFatal marks failures the caller is expected to abort on. Logging at
// this level never exits the process.
const LevelFatal = slog.Level(12)

// NewLogger returns a text logger writing to w that renders LevelFatal as FATAL.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelFatal {
					a.Value = slog.StringValue("FATAL")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultLogger() *slog.Logger {
	return NewLogger(os.Stderr, slog.LevelInfo)
}

func logFatal(logger *slog.Logger, msg string, args ...any) {
	logger.Log(context.Background(), LevelFatal, msg, args...)
}

// discardLogger drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
