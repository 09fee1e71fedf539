// Package logger provides leveled, structured logging for the sync tools.
//
// It wraps charmbracelet/log behind a small package-level surface so callers
// never carry a logger instance around. Everything goes to stderr; stdout is
// reserved for the command output itself (dry-run listings, summaries).
package logger

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

var std = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// SetLevel sets the minimum level from its string form ("debug", "info",
// "warn", "error"). Messages below the minimum are discarded.
func SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	std.SetLevel(lvl)
	return nil
}

// Debug logs detailed diagnostic information.
func Debug(msg string, keyvals ...any) {
	std.Debug(msg, keyvals...)
}

// Info logs general operational information.
func Info(msg string, keyvals ...any) {
	std.Info(msg, keyvals...)
}

// Warn logs potential issues that don't prevent operation.
func Warn(msg string, keyvals ...any) {
	std.Warn(msg, keyvals...)
}

// Error logs failures that prevent normal operation.
func Error(msg string, keyvals ...any) {
	std.Error(msg, keyvals...)
}
