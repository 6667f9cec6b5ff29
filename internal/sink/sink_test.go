// internal/sink/sink_test.go
package sink_test

import (
	"context"
	"errors"
	"testing"

	"github.com/quantpulse/marketstream/internal/sink"
	"github.com/quantpulse/marketstream/pkg/logger"
	"github.com/quantpulse/marketstream/pkg/marketdata"
	"github.com/quantpulse/marketstream/pkg/stream"
)

type fakeProducer struct {
	published [][]byte
	keys      []string
	err       error
}

func (f *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, string(key))
	f.published = append(f.published, value)
	return nil
}

func (f *fakeProducer) Ping() error  { return nil }
func (f *fakeProducer) Close() error { return nil }

func newSink(t *testing.T, prod *fakeProducer) *sink.Sink {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "debug", DevMode: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return sink.New(prod, "marketdata.events", log)
}

func TestProcess_PublishesRawFrame(t *testing.T) {
	prod := &fakeProducer{}
	s := newSink(t, prod)

	evt := marketdata.Event{Stream: "btcusdt@trade", Raw: []byte(`{"stream":"btcusdt@trade"}`)}
	if err := s.Process(context.Background(), stream.OutcomeOf(evt, error(nil))); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(prod.published) != 1 || string(prod.published[0]) != string(evt.Raw) {
		t.Errorf("published = %q; want raw frame", prod.published)
	}
	if prod.keys[0] != "btcusdt@trade" {
		t.Errorf("key = %q; want stream name", prod.keys[0])
	}
}

func TestProcess_FailureOutcomeReturnsError(t *testing.T) {
	prod := &fakeProducer{}
	s := newSink(t, prod)

	sentinel := errors.New("read: connection reset")
	err := s.Process(context.Background(), stream.OutcomeOf(marketdata.Event{}, sentinel))
	if !errors.Is(err, sentinel) {
		t.Fatalf("Process error = %v; want %v", err, sentinel)
	}
	if len(prod.published) != 0 {
		t.Error("failure outcome must not be published")
	}
}

func TestProcess_PublishErrorSurfaces(t *testing.T) {
	prod := &fakeProducer{err: errors.New("kafka down")}
	s := newSink(t, prod)

	evt := marketdata.Event{Stream: "s", Raw: []byte(`{}`)}
	if err := s.Process(context.Background(), stream.OutcomeOf(evt, error(nil))); err == nil {
		t.Fatal("expected publish error, got nil")
	}
}
