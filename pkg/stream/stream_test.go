// pkg/stream/stream_test.go
package stream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/quantpulse/marketstream/pkg/logger"
	"github.com/quantpulse/marketstream/pkg/stream"
	"github.com/quantpulse/marketstream/pkg/stream/streamtest"
)

// echo server upgrading every incoming connection and sending one greeting.
func newGreetingServer(t *testing.T) (*httptest.Server, *url.URL) {
	t.Helper()
	upg := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"stream":"hello"}`)); err != nil {
			return
		}
		// keep the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return srv, u
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "debug", DevMode: true})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestConnect_Success(t *testing.T) {
	_, u := newGreetingServer(t)

	w, err := stream.Connect(context.Background(), u, testLogger(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Close()

	select {
	case out := <-w.Messages():
		msg, ok := out.Value()
		if !ok {
			_, err := out.Unpack()
			t.Fatalf("expected success outcome, got error %v", err)
		}
		if !strings.Contains(string(msg.Data), "hello") {
			t.Errorf("frame = %s; want greeting", msg.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for greeting frame")
	}
}

func TestConnect_FailureWrapsCause(t *testing.T) {
	srv, err := streamtest.NewAbortServer()
	if err != nil {
		t.Fatalf("NewAbortServer: %v", err)
	}
	defer srv.Close()

	_, err = stream.Connect(context.Background(), srv.URL(), testLogger(t))
	if err == nil {
		t.Fatal("expected connect error, got nil")
	}
	var cerr *stream.ConnectError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %T; want *stream.ConnectError", err)
	}
	if cerr.Unwrap() == nil {
		t.Error("ConnectError must wrap the transport cause")
	}
}

// Two Connect calls against the same endpoint yield two independent streams.
func TestConnect_IndependentStreams(t *testing.T) {
	_, u := newGreetingServer(t)
	log := testLogger(t)

	w1, err := stream.Connect(context.Background(), u, log)
	if err != nil {
		t.Fatalf("Connect #1: %v", err)
	}
	w2, err := stream.Connect(context.Background(), u, log)
	if err != nil {
		t.Fatalf("Connect #2: %v", err)
	}
	defer w2.Close()

	if w1 == w2 {
		t.Fatal("expected two distinct wrappers")
	}

	// closing the first stream must not disturb the second
	if err := w1.Close(); err != nil {
		t.Errorf("close #1: %v", err)
	}
	select {
	case out := <-w2.Messages():
		if _, ok := out.Value(); !ok {
			t.Error("second stream should still deliver its greeting")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out reading from second stream")
	}
}

// Every log event of one connection attempt carries that attempt's id; two
// concurrent attempts never share one.
func TestConnect_ScopedDiagnostics(t *testing.T) {
	_, u := newGreetingServer(t)

	core, logs := observer.New(zap.DebugLevel)
	log := logger.FromZap(zap.New(core))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := stream.Connect(context.Background(), u, log)
			if err != nil {
				t.Errorf("Connect: %v", err)
				return
			}
			w.Close()
		}()
	}
	wg.Wait()

	byAttempt := make(map[string][]string)
	for _, entry := range logs.All() {
		id, _ := entry.ContextMap()["attempt_id"].(string)
		if id == "" {
			t.Errorf("entry %q has no attempt_id", entry.Message)
			continue
		}
		byAttempt[id] = append(byAttempt[id], entry.Message)
	}

	if len(byAttempt) != 2 {
		t.Fatalf("expected 2 attempt scopes, got %d", len(byAttempt))
	}
	for id, msgs := range byAttempt {
		var connecting, success bool
		for _, m := range msgs {
			switch m {
			case "connecting":
				connecting = true
			case "connection successful":
				success = true
			}
		}
		if !connecting || !success {
			t.Errorf("attempt %s: messages = %v; want connecting + connection successful", id, msgs)
		}
	}
}
