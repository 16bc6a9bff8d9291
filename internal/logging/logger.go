// Package logging is the human-readable application log.
//
// The TUI owns the terminal, so everything goes to a dated file under the
// data directory. Structured, machine-readable events live in otel instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Version is reported in the startup line.
const Version = "0.3.0"

// keepDays is how long dated log files are kept.
const keepDays = 7

var (
	// Logger is the global logger instance
	Logger *log.Logger

	logFile *os.File
)

// Init opens <dataDir>/logs/cycleglobe-<date>.log and points Logger at it.
func Init(dataDir string, level log.Level) error {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	now := time.Now()
	removed := prune(logDir, now, keepDays)

	logFileName := fmt.Sprintf("cycleglobe-%s.log", now.Format("2006-01-02"))
	logPath := filepath.Join(logDir, logFileName)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f

	InitWriter(f, level)
	Logger.Info("cycleglobe started", "version", Version, "pruned", removed)
	return nil
}

// InitWriter points Logger at w. Used by headless modes that log to stderr
// and by tests.
func InitWriter(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Close closes the log file
func Close() {
	if Logger != nil {
		Logger.Info("cycleglobe shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Info logs an info message
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Debug logs a debug message
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Warn logs a warning message
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// AlsoTo copies log output to w at level, keeping the file if one is open.
// serve -v uses it to mirror the log on stderr.
func AlsoTo(w io.Writer, level log.Level) {
	if logFile != nil {
		w = io.MultiWriter(logFile, w)
	}
	InitWriter(w, level)
}

// prune removes dated log files older than keep days. Errors are ignored;
// a stale log is not worth failing startup over.
func prune(logDir string, now time.Time, keep int) int {
	matches, _ := filepath.Glob(filepath.Join(logDir, "cycleglobe-*.log"))
	cutoff := now.AddDate(0, 0, -keep)
	removed := 0
	for _, m := range matches {
		day := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "cycleglobe-"), ".log")
		t, err := time.ParseInLocation("2006-01-02", day, now.Location())
		if err != nil || !t.Before(cutoff) {
			continue
		}
		if os.Remove(m) == nil {
			removed++
		}
	}
	return removed
}
