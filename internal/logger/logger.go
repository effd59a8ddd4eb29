package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger with application-specific methods
type Logger struct {
	*slog.Logger
}

// LogLevel represents the available log levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Levels lists every accepted --log-level value
var Levels = []string{string(LevelDebug), string(LevelInfo), string(LevelWarn), string(LevelError)}

// Config holds logger configuration
type Config struct {
	Level   LogLevel
	Output  io.Writer
	Verbose bool
}

// New creates a new logger with the specified configuration.
// Diagnostics default to stderr so stdout only carries lookup results.
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	level := toSlogLevel(config.Level)
	if config.Verbose {
		level = slog.LevelDebug
	}

	return &Logger{
		Logger: slog.New(newLineHandler(config.Output, level)),
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(Config{Level: LevelError, Output: io.Discard})
}

func toSlogLevel(level LogLevel) slog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a logger that includes the given attributes on every line
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Infof provides printf-style logging for info level
func (l *Logger) Infof(format string, args ...any) {
	l.Logger.Info(fmt.Sprintf(format, args...))
}

// Debugf provides printf-style logging for debug level
func (l *Logger) Debugf(format string, args ...any) {
	l.Logger.Debug(fmt.Sprintf(format, args...))
}

// Warnf provides printf-style logging for warn level
func (l *Logger) Warnf(format string, args ...any) {
	l.Logger.Warn(fmt.Sprintf(format, args...))
}

// Errorf provides printf-style logging for error level
func (l *Logger) Errorf(format string, args ...any) {
	l.Logger.Error(fmt.Sprintf(format, args...))
}
