// Package log provides module-tagged structured logging on top of log/slog.
//
// The root logger discards everything until InitLogger is called, so library
// code can log freely without configuring anything in tests.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Modules used as the "module" attribute of every record.
const (
	SingleStageModule = "ss_core"
	FiveStageModule   = "fs_core"
	LoaderModule      = "loader"
	ReportModule      = "report"
	CLIModule         = "cli"
	BenchModule       = "bench"
)

// Levels. LevelTrace sits below debug and is used for per-cycle records.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
)

var root atomic.Pointer[slog.Logger]

func init() {
	root.Store(slog.New(slog.DiscardHandler))
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger installs a text logger writing to w at the given level.
func InitLogger(level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// SetDefault replaces the root logger.
func SetDefault(l *slog.Logger) {
	root.Store(l)
}

// Root returns the root logger.
func Root() *slog.Logger {
	return root.Load()
}

// Enabled reports whether records at level would be emitted.
func Enabled(level slog.Level) bool {
	return Root().Enabled(context.Background(), level)
}

func write(level slog.Level, module, msg string, ctx []any) {
	l := Root()
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, msg, append([]any{"module", module}, ctx...)...)
}

// Trace logs at trace level.
func Trace(module, msg string, ctx ...any) { write(LevelTrace, module, msg, ctx) }

// Debug logs at debug level.
func Debug(module, msg string, ctx ...any) { write(LevelDebug, module, msg, ctx) }

// Info logs at info level.
func Info(module, msg string, ctx ...any) { write(LevelInfo, module, msg, ctx) }

// Warn logs at warn level.
func Warn(module, msg string, ctx ...any) { write(LevelWarn, module, msg, ctx) }

// Error logs at error level.
func Error(module, msg string, ctx ...any) { write(LevelError, module, msg, ctx) }
