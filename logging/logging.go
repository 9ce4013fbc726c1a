package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a deliberately small, framework-agnostic logging interface.
// Engines and façades take a Logger so callers can swap in whatever they
// already use.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value interface{}
}

// zapLogger adapts a *zap.Logger to the Logger interface.
type zapLogger struct {
	l *zap.Logger
}

// New returns a production zap-backed Logger scoped to the given component.
func New(component string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		// Config above is static; Build only fails on bad sink paths.
		l = zap.NewNop()
	}
	if component != "" {
		l = l.With(zap.String("component", component))
	}
	return &zapLogger{l: l}
}

// NewNop returns a Logger that discards everything. Handy default for tests
// and for callers that pass no logger.
func NewNop() Logger {
	return &zapLogger{l: zap.NewNop()}
}

// Wrap adapts an existing *zap.Logger.
func Wrap(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l}
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (z *zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, toZap(fields)...) }
func (z *zapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, toZap(fields)...) }
func (z *zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, toZap(fields)...) }
func (z *zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, toZap(fields)...) }

func (z *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{l: z.l.With(toZap(fields)...)}
}
