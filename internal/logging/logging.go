package logging

import (
	"log/slog"
	"os"

	"github.com/pion/logging"
)

// Level resolves LOG_LEVEL, falling back to def when unset or unknown.
func Level(def slog.Level) slog.Level {
	l, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		return def
	}
	switch l {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	}
	return def
}

// Init installs the default slog logger. The CLI passes slog.LevelError so
// that only failures reach the terminal; the server passes slog.LevelInfo.
func Init(def slog.Level) {
	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: Level(def),
		}),
	)
	slog.SetDefault(logger)
}

// PionFactory returns a pion logger factory whose level follows LOG_LEVEL.
func PionFactory(def slog.Level) logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = PionLevel(Level(def))
	return f
}

// PionLevel maps an slog level to pion's scale.
func PionLevel(l slog.Level) logging.LogLevel {
	switch {
	case l <= slog.LevelDebug:
		return logging.LogLevelDebug
	case l <= slog.LevelInfo:
		return logging.LogLevelInfo
	case l <= slog.LevelWarn:
		return logging.LogLevelWarn
	default:
		return logging.LogLevelError
	}
}
