package logger

import (
	"log/slog"
	"testing"

	"github.com/Strob0t/LensForge/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_Sync(t *testing.T) {
	log, closer := New(config.Logging{Level: "info", Service: "lensforge-test"})
	if log == nil {
		t.Fatal("nil logger")
	}
	closer.Close()
}

func TestNew_AsyncCloserFlushes(t *testing.T) {
	log, closer := New(config.Logging{Level: "debug", Service: "lensforge-test", Async: true, AsyncBuffer: 8})
	log.Debug("buffered record")
	// Close must drain without panicking or deadlocking.
	closer.Close()
	if got := closer.Dropped(); got != 0 {
		t.Fatalf("expected no dropped records, got %d", got)
	}
}
