// Package log wraps zap behind a small leveled interface so the simulator
// packages stay decoupled from the logging backend.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the logging surface used across the simulator.
type Log interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Log
}

// Level controls the minimum severity that gets emitted.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var _ Log = (*Logger)(nil)

// Logger is the zap-backed implementation.
type Logger struct {
	zl *zap.Logger
}

// New builds a console logger at the given level. The simulator is a
// classroom tool, so output goes to stderr in a human-readable encoding.
func New(level Level) *Logger {
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(toZapLevel(level)),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	zl, err := config.Build()
	if err != nil {
		panic(err)
	}
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything. Library consumers get this
// by default so importing the simulator never produces output on its own.
func Nop() *Logger { return &Logger{zl: zap.NewNop()} }

func (l *Logger) Debug(msg string, fields ...Field) { l.zl.Debug(msg, toZap(fields)...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.zl.Info(msg, toZap(fields)...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.zl.Warn(msg, toZap(fields)...) }
func (l *Logger) Error(msg string, fields ...Field) { l.zl.Error(msg, toZap(fields)...) }

func (l *Logger) With(fields ...Field) Log {
	return &Logger{zl: l.zl.With(toZap(fields)...)}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.zl.Sync() }

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zap.DebugLevel
	case LevelWarn:
		return zap.WarnLevel
	case LevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
