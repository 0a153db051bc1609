package slog

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Environment variables read by LevelFromEnv, most specific first.
const (
	EnvLogLevel         = "FIREAI_LOG_LEVEL"
	EnvLogLevelFallback = "LOG_LEVEL"
)

// LevelFromEnv returns the level named by FIREAI_LOG_LEVEL or LOG_LEVEL.
// Unset or unknown values give INFO; an unknown value is reported on the
// default logger.
func LevelFromEnv() slog.Level {
	for _, key := range []string{EnvLogLevel, EnvLogLevelFallback} {
		value := os.Getenv(key)
		if value == "" {
			continue
		}
		level, err := ParseLevel(value)
		if err != nil {
			slog.Warn("ignoring log level from environment", "variable", key, "error", err)
			return slog.LevelInfo
		}
		return level
	}
	return slog.LevelInfo
}

// ParseLevel maps a level name to its slog level. Names are
// case-insensitive: trace, debug, info, warn (or warning) and error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}
