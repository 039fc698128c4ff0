// Package logger wires log/slog to a rotating file or stream sink, the way
// every service in this codebase's family configures its own logging.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger, set by Init/InitWithConfig.
var Log *slog.Logger

// Config controls the logger's level, format and output sink.
type Config struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Init initializes the logger with JSON output to stdout at the given level.
func Init(level string) {
	InitWithConfig(Config{Level: level, Format: "json", Output: "stdout"})
}

// InitWithConfig initializes the logger with full control over sink and format.
func InitWithConfig(cfg Config) {
	var lvl slog.Level
	switch cfg.Level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	var writer io.Writer
	switch cfg.Output {
	case "stderr":
		writer = os.Stderr
	case "file":
		if cfg.FilePath == "" {
			cfg.FilePath = "logs/app.log"
		}
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			writer = os.Stdout
		} else {
			writer = &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			}
		}
	default:
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		handler = slog.NewJSONHandler(writer, opts)
	}

	Log = slog.New(handler)
}

// WithContext returns a logger enriched with the given key-value pairs.
func WithContext(_ context.Context, args ...any) *slog.Logger {
	return Log.With(args...)
}

// WithTripID returns a logger tagged with a trip identifier.
func WithTripID(tripID string) *slog.Logger {
	return Log.With("trip_id", tripID)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { Log.Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { Log.Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { Log.Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { Log.Error(msg, args...) }

// Fatal logs at error level and terminates the process.
func Fatal(msg string, args ...any) {
	Log.Error(msg, args...)
	os.Exit(1)
}
