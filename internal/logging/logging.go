// Package logging configures the structured and human-readable loggers
// shared by every console service.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable
// loggers. JSON goes to stdout, text to stderr.
func Init(level slog.Level) {
	structuredHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	structuredLogger = slog.New(structuredHandler)

	humanReadableHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})
	humanReadableLogger = slog.New(humanReadableHandler)

	slog.SetDefault(structuredLogger)
}

// SetOutput redirects logger output, preserving handler configuration.
// Used by tests to silence or capture log output.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) {
	structuredLogger = slog.New(slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
		ReplaceAttr: replaceLevelNames,
	}))
	humanReadableLogger = slog.New(slog.NewTextHandler(humanReadableOutput, &slog.HandlerOptions{
		ReplaceAttr: replaceLevelNames,
	}))
	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
// Returns nil if Init() has not been called.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute
// added, using the global structured logger as the base.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", serviceName)
	}
	return structuredLogger.With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a fatal message using the custom Fatal level and then exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs a trace message using the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// NewFileLogger creates a slog.Logger writing JSON logs to the given file
// path, rotated by lumberjack. It includes a 'service' attribute in all
// records. It returns the logger, a closer for the underlying writer, and
// an error if setup fails.
func NewFileLogger(filePath, serviceName string, level slog.Leveler) (*slog.Logger, func() error, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   false,
	}

	fileHandler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})

	logger := slog.New(fileHandler).With("service", serviceName)

	closeFunc := func() error {
		return logWriter.Close()
	}

	return logger, closeFunc, nil
}
