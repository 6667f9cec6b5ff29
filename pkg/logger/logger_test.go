// pkg/logger/logger_test.go
package logger_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/quantpulse/marketstream/pkg/logger"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logger.New(logger.Config{Level: "invalid", DevMode: false})
	if err == nil {
		t.Error("expected error for invalid level, got nil")
	}
}

func TestNew_ValidLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error"}
	for _, lvl := range levels {
		_, err := logger.New(logger.Config{Level: lvl, DevMode: true})
		if err != nil {
			t.Errorf("expected no error for level %s, got %v", lvl, err)
		}
	}
}

func TestNew_DefaultLevel(t *testing.T) {
	l, err := logger.New(logger.Config{})
	if err != nil {
		t.Fatalf("expected no error for empty config, got %v", err)
	}
	l.Info("default level works")
}

func TestWithContext_TraceAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := logger.FromZap(zap.New(core))

	ctx := context.Background()
	ctx = logger.ContextWithTraceID(ctx, "trace-123")
	ctx = logger.ContextWithRequestID(ctx, "req-456")
	l.WithContext(ctx).Infow("handled")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != "trace-123" {
		t.Errorf("trace_id = %v; want trace-123", fields["trace_id"])
	}
	if fields["request_id"] != "req-456" {
		t.Errorf("request_id = %v; want req-456", fields["request_id"])
	}
}

func TestWithContext_EmptyContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := logger.FromZap(zap.New(core))

	l.WithContext(context.Background()).Infow("bare")

	fields := logs.All()[0].ContextMap()
	if _, ok := fields["trace_id"]; ok {
		t.Error("trace_id must be absent when the context carries none")
	}
}

// Named and With compose: the namespace and the attached fields both show up
// on every entry logged through the derived logger.
func TestNamed_WithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := logger.FromZap(zap.New(core))

	l.Named("sink").With(zap.String("topic", "events")).Debug("published")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].LoggerName; got != "sink" {
		t.Errorf("LoggerName = %q; want sink", got)
	}
	if got := entries[0].ContextMap()["topic"]; got != "events" {
		t.Errorf("topic = %v; want events", got)
	}
}

func TestSync_NoPanic(t *testing.T) {
	l, _ := logger.New(logger.Config{Level: "info", DevMode: true})
	// Sync should not panic
	l.Sync()
}
