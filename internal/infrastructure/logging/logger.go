package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kmush12/PineLock/internal/infrastructure/config"
)

// Logger wraps slog.Logger with service-wide default fields and
// level filtering. All methods are safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from config. Output may be "stdout", "stderr"
// or a file path; a file that cannot be opened falls back to stdout so
// a bad path never takes the process down. Format is "json" or "text",
// level one of debug/info/warn/error (unrecognised values mean info).
func New(cfg config.LoggingConfig, version string) *Logger {
	output := resolveOutput(cfg.Output)

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "pinelock"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// resolveOutput maps the configured output to a writer. Anything that
// is not stdout or stderr is treated as a file path, opened in append
// mode so restarts extend the existing log.
func resolveOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		slog.Warn("cannot open log file, using stdout", "path", output, "error", err)
		return os.Stdout
	}
	return f
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger carrying additional default attributes.
//
//	busLogger := logger.With("component", "mqtt")
//	busLogger.Info("connected") // includes component=mqtt
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a logger for use before configuration is loaded:
// JSON to stdout at info level.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
