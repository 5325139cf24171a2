package logging

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestNew_LevelParsing(t *testing.T) {
	cases := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"unknown", slog.LevelInfo, slog.LevelDebug},
		{"  WARN ", slog.LevelWarn, slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tc := range cases {
		logger := New(io.Discard, tc.level)
		if !logger.Enabled(ctx, tc.enabled) {
			t.Errorf("level %q: expected %v to be enabled", tc.level, tc.enabled)
		}
		if logger.Enabled(ctx, tc.muted) {
			t.Errorf("level %q: expected %v to be muted", tc.level, tc.muted)
		}
	}
}

func TestContextCarriage(t *testing.T) {
	logger := New(io.Discard, "info")

	ctx := WithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatal("expected the attached logger back from the context")
	}

	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil for a bare context, got %v", got)
	}
}
