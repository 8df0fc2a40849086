package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config selects the level, format and sink of the global logger.
type Config struct {
	Level  string
	Format string
	File   string
	// Fallback receives log lines when File is empty or cannot be opened.
	// Nil selects os.Stderr.
	Fallback io.Writer
}

// Init builds the global slog logger and installs it as the default.
// The returned closer releases the log file, if one was opened.
func Init(cfg Config) io.Closer {
	logger, closer := New(cfg)
	slog.SetDefault(logger)
	return closer
}

// New builds a logger without touching the global default. Log lines are
// written to cfg.File when set, otherwise to the fallback writer.
func New(cfg Config) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	w := cfg.Fallback
	if w == nil {
		w = os.Stderr
	}
	var closer io.Closer = nopCloser{}

	if logFile := strings.TrimSpace(cfg.File); logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			slog.Error("failed to create log directory, using stderr", "file", logFile, "error", err)
		} else {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				slog.Error("failed to open log file, using stderr", "file", logFile, "error", err)
			} else {
				w = f
				closer = f
			}
		}
	}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closer
}

// ParseLevel maps a level name to a slog level. Unknown names select warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
