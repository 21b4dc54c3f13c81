package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"ground_ops/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a logger from the log configuration. When cfg.File is set the
// output goes to a size-rotated file instead of stdout. The returned closer
// flushes and closes that file; it is a no-op for stdout.
func New(cfg config.LogConfig) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: 3,
			Compress:   true,
		}
		w = lj
		closer = lj
	}

	return slog.New(newHandler(w, cfg)), closer
}

// Init installs the configured logger as the slog default
func Init(cfg config.LogConfig) io.Closer {
	logger, closer := New(cfg)
	slog.SetDefault(logger)
	return closer
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	if strings.ToLower(cfg.Format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
