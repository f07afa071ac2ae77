// Package logger provides the process-wide structured logger.
//
// It wraps log/slog with a colored text handler for terminals and a JSON
// handler for machine consumption. Commands call Init once after loading
// configuration; everything else logs through the package-level functions.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	mu       sync.RWMutex
	output   io.Writer = os.Stderr
	useColor bool
	level    = new(slog.LevelVar)
	slogger  *slog.Logger
)

func init() {
	useColor = isTerminal(os.Stderr.Fd())
	rebuild("text")
}

// rebuild swaps the handler. Callers must hold mu.
func rebuild(format string) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = NewColorTextHandler(output, opts, useColor)
	}
	slogger = slog.New(h)
}

// Init configures the package logger. Output may be "stdout", "stderr",
// or a file path; files are opened in append mode and never colored.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
		useColor = isTerminal(os.Stdout.Fd())
	case "stderr", "":
		output = os.Stderr
		useColor = isTerminal(os.Stderr.Fd())
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		output = f
		useColor = false
	}

	level.Set(parseLevel(cfg.Level))
	rebuild(strings.ToLower(cfg.Format))
	return nil
}

// InitWithWriter points the logger at an arbitrary writer. Used by tests.
func InitWithWriter(w io.Writer, lvl, format string) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	useColor = false
	level.Set(parseLevel(lvl))
	rebuild(strings.ToLower(format))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with structured fields.
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs at info level with structured fields.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs at warn level with structured fields.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs at error level with structured fields.
func Error(msg string, args ...any) { get().Error(msg, args...) }

// With returns a slog.Logger with pre-bound attributes.
func With(args ...any) *slog.Logger { return get().With(args...) }
