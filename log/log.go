// Package log provides the structured logger used across edgeswarm:
// a thin interface over zap, with a no-op implementation for tests
// and library embedding where the caller doesn't want log output.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the minimal structured-logging surface every component
// takes as a dependency (never a package-level logger).
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

// NewProductionLogger builds a JSON logger at the given minimum level,
// suitable for a long-running node process.
func NewProductionLogger(level zapcore.Level) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{l: zl}, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...zap.Field) {}
func (noopLogger) Info(string, ...zap.Field)  {}
func (noopLogger) Warn(string, ...zap.Field)  {}
func (noopLogger) Error(string, ...zap.Field) {}
func (n noopLogger) With(...zap.Field) Logger { return n }

// NewNoOpLogger returns a Logger that discards everything, for tests
// and callers that haven't configured logging.
func NewNoOpLogger() Logger { return noopLogger{} }

// PeerField and RoundField are the two context fields almost every
// drop-and-log call site attaches.
func PeerField(peerHex string) zap.Field { return zap.String("peer", peerHex) }
func RoundField(round uint64) zap.Field  { return zap.Uint64("round", round) }
