// pkg/stream/streamtest/mock.go
package streamtest

import (
	"context"

	"github.com/quantpulse/marketstream/pkg/stream"
)

// MockStream spins up a scripted server and drives client's full
// connect-and-subscribe entrypoint against it, returning whatever the client
// returns. Any failure the script provokes in the client propagates to the
// caller unswallowed.
func MockStream[S, U any](ctx context.Context, client stream.Subscribable[S, U], script Script) (S, U, error) {
	srv, err := NewServer(script)
	if err != nil {
		var s S
		var u U
		return s, u, err
	}

	return MockStreamAt(ctx, client, srv)
}

// MockStreamAt drives client against an already-running harness server. Use
// NewAbortServer to exercise handshake failure paths.
func MockStreamAt[S, U any](ctx context.Context, client stream.Subscribable[S, U], srv *Server) (S, U, error) {
	info := &stream.ApiInfo{
		BaseURL: srv.URL(),
		KeyID:   KeyID,
		Secret:  Secret,
	}
	return client.Connect(ctx, info)
}
