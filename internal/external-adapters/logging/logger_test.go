package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, "info")

	logger.Debug("hidden")
	logger.Info("converted", interfaces.F("src", "a.bmp"), interfaces.F("width", 64))
	logger.Warn("slow", interfaces.F("ms", 1200))
	logger.Error("failed", interfaces.F("error", errors.New("boom")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level:\n%s", out)
	}
	for _, want := range []string{
		"level=INFO msg=converted src=a.bmp width=64",
		"level=WARN msg=slow ms=1200",
		"level=ERROR msg=failed error=boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "plugin.log")

	logger, err := OpenFileLogger(path, "debug")
	if err != nil {
		t.Fatalf("OpenFileLogger() error = %v", err)
	}
	logger.Debug("loaded", interfaces.F("dir", "C:/ghost"))
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=loaded dir=C:/ghost") {
		t.Errorf("log file = %q", data)
	}
}
