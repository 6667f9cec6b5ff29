// pkg/stream/wrap.go
package stream

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultBufferSize = 100
	defaultReadLimit  = 1 << 20 // 1 MiB per frame
	writeTimeout      = 5 * time.Second
)

// Message is one websocket frame as received from the peer.
type Message struct {
	Type int // websocket.TextMessage or websocket.BinaryMessage
	Data []byte
}

// Wrapper is the framing adapter over an established websocket connection.
// It owns the socket exclusively: closing the Wrapper closes the socket, and
// the read loop is the only reader.
type Wrapper struct {
	conn       *websocket.Conn
	bufferSize int
	readLimit  int64

	writeMu   sync.Mutex
	readOnce  sync.Once
	closeOnce sync.Once
	msgs      chan Outcome[Message, error]
	done      chan struct{}
}

// WrapperOption tweaks the framing defaults.
type WrapperOption func(*Wrapper)

// WithBufferSize sets the capacity of the message channel.
func WithBufferSize(n int) WrapperOption {
	return func(w *Wrapper) {
		if n > 0 {
			w.bufferSize = n
		}
	}
}

// WithReadLimit caps the size of a single incoming frame.
func WithReadLimit(n int64) WrapperOption {
	return func(w *Wrapper) {
		if n > 0 {
			w.readLimit = n
		}
	}
}

// NewWrapper builds a Wrapper around conn with default framing configuration.
// Construction never fails.
func NewWrapper(conn *websocket.Conn, opts ...WrapperOption) *Wrapper {
	w := &Wrapper{
		conn:       conn,
		bufferSize: defaultBufferSize,
		readLimit:  defaultReadLimit,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.msgs = make(chan Outcome[Message, error], w.bufferSize)
	return w
}

// Messages starts the read loop on first use and returns the frame channel.
// The channel is closed after a failure outcome is delivered or the Wrapper
// is closed. Subsequent calls return the same channel.
func (w *Wrapper) Messages() <-chan Outcome[Message, error] {
	w.readOnce.Do(func() {
		w.conn.SetReadLimit(w.readLimit)
		go w.readLoop()
	})
	return w.msgs
}

func (w *Wrapper) readLoop() {
	defer close(w.msgs)
	for {
		mt, data, err := w.conn.ReadMessage()
		out := OutcomeOf(Message{Type: mt, Data: data}, err)
		select {
		case w.msgs <- out:
		case <-w.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Send writes one frame to the peer. Safe for concurrent use.
func (w *Wrapper) Send(msg Message) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("stream: set write deadline: %w", err)
	}
	if err := w.conn.WriteMessage(msg.Type, msg.Data); err != nil {
		return fmt.Errorf("stream: write: %w", err)
	}
	return nil
}

// SendJSON marshals v and sends it as a single text frame.
func (w *Wrapper) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("stream: marshal: %w", err)
	}
	return w.Send(Message{Type: websocket.TextMessage, Data: data})
}

// Close releases the underlying socket. Idempotent.
func (w *Wrapper) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}
