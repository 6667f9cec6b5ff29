// pkg/stream/stream.go

// Package stream establishes a single authenticated websocket connection to a
// streaming market-data endpoint and hands it over as a framed Wrapper. It
// performs exactly one connection attempt per call: retry, keepalive and
// backpressure policies belong to the caller.
package stream

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quantpulse/marketstream/pkg/logger"
)

var tracer = otel.Tracer("marketstream/stream")

// ConnectError wraps whatever the transport reported during the handshake:
// DNS failure, TCP refusal, TLS negotiation failure, HTTP-upgrade rejection.
// No sub-kinds are introduced here; use Unwrap to reach the cause.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("stream: connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// connectInternal performs one handshake attempt against u.
//
// All events emitted here carry the "stream" namespace and a per-attempt id,
// so two concurrent attempts never mix up their log output. The handshake
// response headers are logged and otherwise ignored; the peer does not seem
// to put anything actionable in them.
func connectInternal(ctx context.Context, u *url.URL, log *logger.Logger) (*websocket.Conn, error) {
	scope := log.Named("stream").With(
		zap.String("attempt_id", uuid.NewString()),
		zap.String("url", u.String()),
	)

	ctx, span := tracer.Start(ctx, "stream.connect",
		trace.WithAttributes(attribute.String("url", u.String())))
	defer span.End()

	scope.Debug("connecting")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		span.RecordError(err)
		return nil, &ConnectError{Endpoint: u.String(), Err: err}
	}

	scope.Debug("connection successful")
	if resp != nil {
		scope.Debug("handshake response", zap.Any("headers", resp.Header))
	}
	return conn, nil
}

// Connect opens a websocket connection to u (ws:// or wss://) and wraps it
// with default framing configuration. One successful call produces exactly
// one stream; the returned Wrapper owns the socket.
func Connect(ctx context.Context, u *url.URL, log *logger.Logger) (*Wrapper, error) {
	conn, err := connectInternal(ctx, u, log)
	if err != nil {
		return nil, err
	}
	return NewWrapper(conn), nil
}
