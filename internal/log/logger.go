// Package log is the process wide structured logger. Records go through a
// tint handler; each -v lowers the level from warn to info, debug, trace.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Verbosity levels selected by repeated -v flags.
const (
	LevelQuiet = iota // warnings only
	LevelInfo         // -v: flow steps and counts
	LevelDebug        // -vv: requests, document sizes, request ids
	LevelTrace        // -vvv: every flow transition
)

// levelTrace sits below slog's debug level.
const levelTrace = slog.LevelDebug - 4

var (
	mu     sync.RWMutex
	level  = slog.LevelWarn
	logger = slog.New(newHandler(os.Stderr, slog.LevelWarn))
)

// Initialize sets the verbosity and the destination of log records.
func Initialize(verbosity int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	level = levelFor(verbosity)
	logger = slog.New(newHandler(w, level))
}

// SetOutput redirects records to w and keeps the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(newHandler(w, level))
}

func levelFor(verbosity int) slog.Level {
	switch {
	case verbosity >= LevelTrace:
		return levelTrace
	case verbosity >= LevelDebug:
		return slog.LevelDebug
	case verbosity >= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// newHandler builds a tint handler, colorized only when w is a terminal.
func newHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: "15:04:05",
		NoColor:    !isTerminal(w),
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// Trace logs below debug, shown with -vvv.
func Trace(msg string, args ...any) {
	current().Log(context.Background(), levelTrace, msg, args...)
}

// Warn is always shown.
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}
