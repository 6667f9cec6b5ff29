// pkg/stream/api.go
package stream

import (
	"context"
	"fmt"
	"net/url"
)

// ApiInfo is the minimal API configuration needed to open a stream: the
// websocket base URL plus the key/secret pair used by the auth frame.
type ApiInfo struct {
	BaseURL *url.URL
	KeyID   string
	Secret  string
}

// Validate checks the configuration is usable for a connection attempt.
func (a *ApiInfo) Validate() error {
	switch {
	case a.BaseURL == nil:
		return fmt.Errorf("stream: base URL is required")
	case a.BaseURL.Scheme != "ws" && a.BaseURL.Scheme != "wss":
		return fmt.Errorf("stream: unsupported scheme %q", a.BaseURL.Scheme)
	default:
		return nil
	}
}

// Subscribable is the connect-and-subscribe capability: given an API
// configuration, establish the stream and the initial subscription in one
// call. S is the client-side stream handle, U the subscription handle.
type Subscribable[S, U any] interface {
	Connect(ctx context.Context, info *ApiInfo) (S, U, error)
}
