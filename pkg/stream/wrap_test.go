// pkg/stream/wrap_test.go
package stream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantpulse/marketstream/pkg/stream"
)

// Frames arrive in order as success outcomes; a terminating failure outcome
// follows the peer's close, then the channel closes.
func TestWrapper_MessagesThenFailure(t *testing.T) {
	upg := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 2; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"n":1}`)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	u, _ := url.Parse("ws" + strings.TrimPrefix(srv.URL, "http"))
	w, err := stream.Connect(context.Background(), u, testLogger(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Close()

	var successes, failures int
	deadline := time.After(2 * time.Second)
	msgs := w.Messages()
	for {
		select {
		case out, open := <-msgs:
			if !open {
				if successes != 2 {
					t.Errorf("successes = %d; want 2", successes)
				}
				if failures != 1 {
					t.Errorf("failures = %d; want 1", failures)
				}
				return
			}
			if out.Ok() {
				successes++
			} else {
				failures++
			}
		case <-deadline:
			t.Fatal("timed out draining messages")
		}
	}
}

func TestWrapper_SendJSON(t *testing.T) {
	received := make(chan []byte, 1)
	upg := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data
	}))
	defer srv.Close()

	u, _ := url.Parse("ws" + strings.TrimPrefix(srv.URL, "http"))
	w, err := stream.Connect(context.Background(), u, testLogger(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer w.Close()

	payload := map[string]any{"action": "subscribe", "streams": []string{"s"}}
	if err := w.SendJSON(payload); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}

	select {
	case data := <-received:
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["action"] != "subscribe" {
			t.Errorf("action = %v; want subscribe", got["action"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}
}

func TestWrapper_CloseIdempotent(t *testing.T) {
	_, u := newGreetingServer(t)
	w, err := stream.Connect(context.Background(), u, testLogger(t))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
