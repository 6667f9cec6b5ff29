// pkg/stream/streamtest/server.go

// Package streamtest provides a scripted websocket server for exercising
// protocol clients without a live endpoint. Everything here is test support;
// the credentials are placeholders and carry no authentication weight.
package streamtest

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	// KeyID is the fake key id the harness puts into ApiInfo.
	KeyID = "USER12345678"
	// Secret is the fake secret the harness puts into ApiInfo.
	Secret = "justletmein"
)

// Script drives the server side of the first accepted connection. It may
// send, receive and close frames arbitrarily: normal streaming, malformed
// frames, abrupt close, slow responses.
type Script func(conn *websocket.Conn) error

// Server is a local websocket server bound to an ephemeral port, serving
// exactly one connection. Its lifetime is bounded to the test that made it.
type Server struct {
	ln   net.Listener
	srv  *http.Server
	done chan struct{}

	mu  sync.Mutex
	err error
}

// NewServer binds 127.0.0.1:0 and runs script against the first upgraded
// connection in a background goroutine.
func NewServer(script Script) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("streamtest: listen: %w", err)
	}

	s := &Server{ln: ln, done: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	var once sync.Once

	s.srv = &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() {
			defer close(s.done)
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				s.setErr(fmt.Errorf("streamtest: upgrade: %w", err))
				return
			}
			defer conn.Close()
			if err := script(conn); err != nil {
				s.setErr(err)
			}
		})
	})}
	go func() { _ = s.srv.Serve(ln) }()

	return s, nil
}

// NewAbortServer binds 127.0.0.1:0, accepts one raw TCP connection and
// closes it before the websocket upgrade can complete. Used to exercise
// handshake failure paths.
func NewAbortServer() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("streamtest: listen: %w", err)
	}
	s := &Server{ln: ln, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		conn, err := ln.Accept()
		if err != nil {
			s.setErr(err)
			return
		}
		conn.Close()
	}()
	return s, nil
}

func (s *Server) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Addr returns the bound host:port.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// URL returns the ws:// endpoint of the server.
func (s *Server) URL() *url.URL {
	u, err := url.Parse("ws://" + s.Addr())
	if err != nil {
		panic(err) // cannot happen for a bound TCP address
	}
	return u
}

// Wait blocks until the script (or the abort goroutine) has finished.
func (s *Server) Wait() { <-s.done }

// Err returns the first error the script reported. Meaningful after Wait.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the server down. The listener is released; an in-flight
// connection is closed.
func (s *Server) Close() error {
	if s.srv != nil {
		return s.srv.Close()
	}
	return s.ln.Close()
}
