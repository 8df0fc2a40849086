package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelWarn,
		"chatty":  slog.LevelWarn,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesTextToFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, closer := New(Config{Level: "info", Fallback: &buf})
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("shown", "tool", "read_file")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "tool=read_file") {
		t.Fatalf("output = %q", out)
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	t.Parallel()

	var fallback bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "termagent.log")
	logger, closer := New(Config{Level: "warn", Format: "json", File: path, Fallback: &fallback})
	logger.Warn("round budget exhausted", "rounds", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if fallback.Len() != 0 {
		t.Fatalf("fallback received %q", fallback.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &line); err != nil {
		t.Fatalf("decode log line %q: %v", data, err)
	}
	if line["msg"] != "round budget exhausted" || line["rounds"] != float64(3) {
		t.Fatalf("line = %v", line)
	}
}
