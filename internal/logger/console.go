// Package logger provides the diagnostic logger used across pk.
//
// Diagnostics always go to stderr so they never mix with rendered prompts on
// stdout. The default level is "warn": a normal invocation prints nothing
// beyond its command output.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below zap's debug level.
const TraceLevel = zapcore.DebugLevel - 1

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// ConsoleLogger writes leveled "[HH:MM:SS] [LEVEL] message" lines.
// Levels are colored when the writer is a terminal.
type ConsoleLogger struct {
	zap         *zap.Logger
	level       string
	colorOutput bool
}

// NewConsoleLogger returns a logger writing to w at logLevel (trace, debug,
// info, warn or error, case-insensitive; anything else means DefaultLevel).
// A nil writer discards everything.
func NewConsoleLogger(w io.Writer, logLevel string) *ConsoleLogger {
	level := NormalizeLevel(logLevel)
	if w == nil {
		return &ConsoleLogger{zap: zap.NewNop(), level: level}
	}

	useColor := isTerminal(w)
	core := zapcore.NewCore(
		newConsoleEncoder(useColor),
		zapcore.AddSync(w),
		zapLevel(level),
	)
	return &ConsoleLogger{
		zap:         zap.New(core),
		level:       level,
		colorOutput: useColor,
	}
}

// Nop returns a logger that discards everything.
func Nop() *ConsoleLogger {
	return NewConsoleLogger(nil, DefaultLevel)
}

// isTerminal reports whether w is a color-capable TTY. NO_COLOR and
// --no-color set color.NoColor, which turns color off everywhere.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return !color.NoColor && (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NormalizeLevel lowercases level and falls back to DefaultLevel when it is
// not one of trace, debug, info, warn or error.
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return DefaultLevel
	}
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

func zapLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return TraceLevel
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// Level returns the configured level name.
func (cl *ConsoleLogger) Level() string {
	return cl.level
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	if ce := cl.zap.Check(TraceLevel, message); ce != nil {
		ce.Write()
	}
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.zap.Debug(message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.zap.Info(message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.zap.Warn(message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.zap.Error(message)
}

// With returns a logger that appends key=value fields to every line.
func (cl *ConsoleLogger) With(keysAndValues ...any) *ConsoleLogger {
	return &ConsoleLogger{
		zap:         cl.zap.Sugar().With(keysAndValues...).Desugar(),
		level:       cl.level,
		colorOutput: cl.colorOutput,
	}
}

// Sync flushes buffered output.
func (cl *ConsoleLogger) Sync() error {
	return cl.zap.Sync()
}
