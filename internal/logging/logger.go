package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewConsoleHandler returns JSON output in production and colored, human
// readable output everywhere else.
func NewConsoleHandler(w io.Writer, production bool) slog.Handler {
	if production {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	})
}

// Setup installs the console handler as the default logger and returns it so
// it can later be combined with the database handler.
func Setup(production bool) slog.Handler {
	handler := NewConsoleHandler(os.Stdout, production)
	slog.SetDefault(slog.New(handler))
	return handler
}
