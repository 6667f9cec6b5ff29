// pkg/logger/logger.go

package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	traceIDKey   contextKey = "trace_id"
	requestIDKey contextKey = "request_id"
)

// Config describes how to initialize the zap logger.
// Level   — "debug" | "info" | "warn" | "error" (default "info")
// DevMode — true → human-readable console output, otherwise JSON.
type Config struct {
	Level   string
	DevMode bool
}

func (c *Config) applyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c Config) validate() error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("logger: invalid level %q: %w", c.Level, err)
	}
	return nil
}

// Logger is a thin wrapper over *zap.Logger.
type Logger struct {
	raw *zap.Logger
}

// New builds a Logger from cfg. Call Sync() before the process exits.
func New(cfg Config) (*Logger, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var zcfg zap.Config
	if cfg.DevMode {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
	}

	var lvl zapcore.Level
	_ = lvl.UnmarshalText([]byte(cfg.Level))
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"

	raw, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build failed: %w", err)
	}
	return &Logger{raw: raw}, nil
}

// FromZap wraps an already-built *zap.Logger. Handy for tests that need an
// observed core.
func FromZap(raw *zap.Logger) *Logger {
	return &Logger{raw: raw}
}

// Named returns a logger with a namespace suffix.
func (l *Logger) Named(name string) *Logger {
	return &Logger{raw: l.raw.Named(name)}
}

// With returns a logger with the given structured fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{raw: l.raw.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.raw.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.raw.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.raw.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.raw.Error(msg, fields...) }

// Sugar returns the *zap.SugaredLogger view.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.raw.Sugar() }

// Sync flushes buffered entries. Call before exit.
func (l *Logger) Sync() error { return l.raw.Sync() }

// WithContext returns a *zap.SugaredLogger enriched with trace_id and
// request_id fields when present in ctx.
func (l *Logger) WithContext(ctx context.Context) *zap.SugaredLogger {
	fields := make([]interface{}, 0, 4)
	if tid := ctx.Value(traceIDKey); tid != nil {
		fields = append(fields, "trace_id", tid)
	}
	if rid := ctx.Value(requestIDKey); rid != nil {
		fields = append(fields, "request_id", rid)
	}
	if len(fields) > 0 {
		return l.raw.Sugar().With(fields...)
	}
	return l.raw.Sugar()
}

// ContextWithTraceID returns a new context carrying the given trace ID.
func ContextWithTraceID(ctx context.Context, tid string) context.Context {
	return context.WithValue(ctx, traceIDKey, tid)
}

// ContextWithRequestID returns a new context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}
