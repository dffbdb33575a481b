package plog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log levels. NOTICE sits between DEBUG and INFO: it carries operational
// state changes (game detected, sync armed, paused) that are more than
// debug noise but less than the INFO summaries.
const (
	LevelDebug  = slog.LevelDebug
	LevelNotice = slog.Level(-2)
	LevelInfo   = slog.LevelInfo
	LevelWarn   = slog.LevelWarn
	LevelError  = slog.LevelError
)

// LevelDispatchHandler is a slog.Handler that writes log records to different
// handlers based on the record's level. INFO and below go to one handler,
// while WARNING and above go to another.
type LevelDispatchHandler struct {
	stdoutHandler slog.Handler
	stderrHandler slog.Handler
}

// Enabled checks if the level is enabled for either of the underlying handlers.
func (h *LevelDispatchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level) || h.stderrHandler.Enabled(ctx, level)
}

// Handle dispatches the record to the appropriate handler.
func (h *LevelDispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		return h.stderrHandler.Handle(ctx, r)
	}
	return h.stdoutHandler.Handle(ctx, r)
}

// WithAttrs returns a new LevelDispatchHandler with the given attributes added.
func (h *LevelDispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
	}
}

// WithGroup returns a new LevelDispatchHandler with the given group.
func (h *LevelDispatchHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
	}
}

var defaultLogger *slog.Logger

// levelVar is shared by all handlers so SetLevel takes effect everywhere,
// including on outputs installed via SetOutput.
var levelVar = new(slog.LevelVar)

// renameCustomLevels maps our non-standard levels to readable names in the
// text output (slog would otherwise print "INFO-2" for NOTICE).
func renameCustomLevels(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelNotice {
			a.Value = slog.StringValue("NOTICE")
		}
	}
	return a
}

func handlerOptions() *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: renameCustomLevels,
	}
}

func init() {
	levelVar.Set(LevelInfo)

	// Info-level logs (and below) go to stdout, warnings and errors to stderr.
	stdoutHandler := slog.NewTextHandler(os.Stdout, handlerOptions())
	stderrHandler := slog.NewTextHandler(os.Stderr, handlerOptions())

	defaultLogger = slog.New(&LevelDispatchHandler{
		stdoutHandler: stdoutHandler,
		stderrHandler: stderrHandler,
	})
}

// SetOutput allows redirecting the logger's output, primarily for testing.
// All levels are written to the provided writer; filtering still honors the
// level set via SetLevel.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(slog.NewTextHandler(w, handlerOptions()))
}

// SetLevel sets the minimum level that will be logged.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// LevelFromString converts a config/CLI level name to a slog.Level.
// Unknown names fall back to INFO.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "notice":
		return LevelNotice
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelDebug, msg, args...)
}

// Notice logs an operational state change.
func Notice(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelNotice, msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelInfo, msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelWarn, msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelError, msg, args...)
}
