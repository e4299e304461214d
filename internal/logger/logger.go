// internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB   = 10
	maxLogBackups  = 3
	maxLogAgeDays  = 14
	timeKeyPattern = "2006/01/02 15:04:05"
)

// ParseLevel maps a level name to a slog level. ok is false for unknown names.
func ParseLevel(levelStr string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// New creates a logger writing to w and, when logFilePath is set, to a
// rotating log file as well. The returned func closes the file.
func New(w io.Writer, logFilePath string, logLevelStr string) (*slog.Logger, func()) {
	closeFn := func() {}
	if logFilePath != "" {
		rotating := &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
		}
		w = io.MultiWriter(w, rotating)
		closeFn = func() { _ = rotating.Close() }
	}

	level, ok := ParseLevel(logLevelStr)
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(timeKeyPattern)) // Matches log.LstdFlags format
				}
			}
			return a
		},
	}

	logger := slog.New(slog.NewTextHandler(w, opts))
	if !ok {
		logger.Warn("Invalid log level specified, defaulting to INFO.", "provided_level", logLevelStr, "default_level", "INFO")
	}
	return logger, closeFn
}
