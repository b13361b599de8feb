package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"warning alias", "WARNING", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestNewWithWriterFormats(t *testing.T) {
	var jsonBuf, textBuf bytes.Buffer

	NewWithWriter(&jsonBuf, "info", "json").Info("slot fetch", "clinic_id", "gt-1")
	NewWithWriter(&textBuf, "info", "text").Info("slot fetch", "clinic_id", "gt-1")

	if !strings.Contains(jsonBuf.String(), `"clinic_id":"gt-1"`) {
		t.Fatalf("json output = %q", jsonBuf.String())
	}
	if !strings.Contains(textBuf.String(), "clinic_id=gt-1") {
		t.Fatalf("text output = %q", textBuf.String())
	}
}

func TestWithKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json").With("session_id", "s-1")
	logger.Info("hello")

	if !strings.Contains(buf.String(), `"session_id":"s-1"`) {
		t.Fatalf("expected session attribute, got %q", buf.String())
	}
}

func TestDiscardDropsInfo(t *testing.T) {
	if Discard().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Discard() should not enable info")
	}
}
