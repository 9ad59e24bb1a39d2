package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level       string
		wantEnabled slog.Level
		wantOff     slog.Level
	}{
		{level: "debug", wantEnabled: slog.LevelDebug},
		{level: "info", wantEnabled: slog.LevelInfo, wantOff: slog.LevelDebug},
		{level: "warn", wantEnabled: slog.LevelWarn, wantOff: slog.LevelInfo},
		{level: "error", wantEnabled: slog.LevelError, wantOff: slog.LevelWarn},
		{level: "verbose", wantEnabled: slog.LevelInfo, wantOff: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := setupLogger(tt.level)
			ctx := context.Background()

			if !logger.Enabled(ctx, tt.wantEnabled) {
				t.Errorf("level %s should be enabled", tt.wantEnabled)
			}
			if tt.level != "debug" && logger.Enabled(ctx, tt.wantOff) {
				t.Errorf("level %s should be disabled", tt.wantOff)
			}
		})
	}
}

func TestShutdown_NothingToRelease(t *testing.T) {
	a := &App{Logger: slog.New(slog.DiscardHandler)}
	if err := a.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}
