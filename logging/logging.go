// Package logging builds the structured loggers handed to every carbon constructor.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/slog"
)

// LevelFatal sits above slog.LevelError and is used for errors that end the process.
const LevelFatal = slog.Level(12)

var exit = os.Exit

// New returns a text logger writing to w at the given minimum level.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.LevelKey {
				return a
			}
			if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelFatal {
				a.Value = slog.StringValue("FATAL")
			}
			return a
		},
	}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelFatal + 1}))
}

// OrDiscard returns logger, or a discarding logger when logger is nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}

// Fatal logs err with its full stack detail at LevelFatal and terminates the process.
func Fatal(logger *slog.Logger, msg string, err error) {
	OrDiscard(logger).Log(context.Background(), LevelFatal, msg, slog.String("error", fmt.Sprintf("%+v", err)))
	exit(1)
}
