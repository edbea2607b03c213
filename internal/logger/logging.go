// Package logger wraps charmbracelet/log with preset constructors for a
// prefixed logger. The engine, CLI, and server do not use it; they log
// through charmbracelet/log's package-level default logger.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger with the given prefix, timestamps on, at the
// current global log level.
func New(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// Default creates a logger with the given prefix, timestamps off, at the
// current global log level. Used for REPL output where a timestamp on
// every line would just be noise.
func Default(prefix string) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          prefix,
		ReportCaller:    false,
		ReportTimestamp: false,
		Formatter:       log.TextFormatter,
		Level:           log.GetLevel(),
	})
}

// NewWithConfig creates a logger with an explicit level, caller-reporting,
// timestamp, and formatter, for callers that don't want the New/Default
// presets.
func NewWithConfig(prefix string, level log.Level, caller bool, showTimestamp bool, fmt log.Formatter) *log.Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportCaller:    caller,
		ReportTimestamp: showTimestamp,
		Formatter:       fmt,
	})
}
