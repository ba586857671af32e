package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func logAt(l *slog.Logger, level slog.Level) {
	switch level {
	case slog.LevelDebug:
		l.Debug("ping")
	case slog.LevelWarn:
		l.Warn("ping")
	case slog.LevelError:
		l.Error("ping")
	default:
		l.Info("ping")
	}
}

func TestConditionalSourceHandler_SourcePerLevel(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		withSource []slog.Level
		wantSource bool
	}{
		{"info not listed", slog.LevelInfo, []slog.Level{slog.LevelWarn, slog.LevelError}, false},
		{"debug not listed", slog.LevelDebug, []slog.Level{slog.LevelWarn, slog.LevelError}, false},
		{"warn listed", slog.LevelWarn, []slog.Level{slog.LevelWarn, slog.LevelError}, true},
		{"error listed", slog.LevelError, []slog.Level{slog.LevelWarn, slog.LevelError}, true},
		{"info listed explicitly", slog.LevelInfo, []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: false})
			l := slog.New(NewConditionalSourceHandler(base, tt.withSource...))

			logAt(l, tt.level)

			got := strings.Contains(buf.String(), "source=")
			if got != tt.wantSource {
				t.Errorf("source attr present = %v, want %v; output: %s", got, tt.wantSource, buf.String())
			}
		})
	}
}

func TestConditionalSourceHandler_PreservesAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
	l := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).
		With("run_id", "run_123").
		WithGroup("object")

	l.Info("ping", "sid", "hub_1")

	out := buf.String()
	if strings.Contains(out, "source=") {
		t.Errorf("info should not carry source; output: %s", out)
	}
	if !strings.Contains(out, "run_id=run_123") {
		t.Errorf("with-attrs lost; output: %s", out)
	}
	if !strings.Contains(out, "sid") {
		t.Errorf("group attrs lost; output: %s", out)
	}
}

func TestConditionalSourceHandler_DelegatesEnabled(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	h := NewConditionalSourceHandler(base, slog.LevelError)

	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be enabled")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled")
	}
}
