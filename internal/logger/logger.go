package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/askdocs/askdocs/internal/config"
)

var Logger *slog.Logger

// Init initializes structured JSON logging based on configuration.
// In debug mode the level drops to Debug and source locations are added.
func Init(cfg *config.Config) {
	initTo(os.Stdout, cfg)
}

// InitStderr is Init writing to stderr, for binaries whose stdout
// carries a protocol.
func InitStderr(cfg *config.Config) {
	initTo(os.Stderr, cfg)
}

func initTo(w io.Writer, cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Mode == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Mode == "debug",
	}

	Logger = slog.New(slog.NewJSONHandler(w, opts))
	Logger.Info("structured logging initialized", "level", level.String())
}

// Helper functions for common log operations. They are safe to call
// before Init (messages are dropped).
func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}

func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}
