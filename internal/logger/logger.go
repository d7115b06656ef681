// Package logger provides structured logging setup for LensForge.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/LensForge/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record.
// When cfg.Async is set the handler buffers records through a background
// drainer; the returned Closer flushes it on shutdown. The service attr
// is attached below the async wrapper so it is present on every drained
// record.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	level := parseLevel(cfg.Level)

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})

	var closer Closer = nopCloser{}
	if cfg.Async {
		buf := cfg.AsyncBuffer
		if buf <= 0 {
			buf = 1024
		}
		async := NewAsyncHandler(handler, buf)
		handler = async
		closer = async
	}

	return slog.New(handler), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
