// ==============================================================================================
// FILE: internal/enginelog/enginelog.go
// ==============================================================================================
// PACKAGE: enginelog
// PURPOSE: Structured, leveled logging passed explicitly to the Executor constructor, the way Eloquence threads *environment.Environment through the
//          evaluator — no ambient package-level logger. Wraps log/slog (stdlib; no pack example
//          carries a structured-logging library, so this is a documented standard-library choice
//          rather than a dropped dependency).
// ==============================================================================================

package enginelog

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the engine's one logging handle. A nil *Logger is valid and discards everything,
// so callers that do not care about logging can simply leave the field zero.
type Logger struct {
	base *slog.Logger
}

// New wraps an slog.Logger writing text-formatted records to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{base: slog.New(h)}
}

// Discard returns a Logger that drops every record, for callers that want the interface without
// the output (e.g. fixture-driven tests asserting only on engine behavior, not log lines).
func Discard() *Logger {
	return New(io.Discard, slog.LevelError)
}

// Default returns a Logger writing to stderr at info level, the engine driver's baseline.
func Default() *Logger {
	return New(os.Stderr, slog.LevelInfo)
}

func (l *Logger) with() *slog.Logger {
	if l == nil || l.base == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.base
}

func (l *Logger) Debug(msg string, args ...any) { l.with().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.with().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.with().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.with().Error(msg, args...) }

// With returns a Logger whose records carry args as additional fields, per slog's child-logger
// idiom — used to scope a logger to one compiled function id, one coroutine id, and so on.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{base: l.with().With(args...)}
}
