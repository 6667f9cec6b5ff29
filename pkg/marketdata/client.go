// pkg/marketdata/client.go

// Package marketdata implements the connect-and-subscribe protocol on top of
// pkg/stream: one auth frame, one subscribe frame, then a decoded event feed.
package marketdata

import (
	"context"
	"fmt"

	"github.com/quantpulse/marketstream/pkg/logger"
	"github.com/quantpulse/marketstream/pkg/stream"
)

// Client connects to a market-data endpoint and subscribes to the configured
// streams. It implements stream.Subscribable[*Stream, *Subscription].
type Client struct {
	cfg Config
	log *logger.Logger
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, log: log.Named("marketdata")}, nil
}

// Connect performs the full entrypoint: dial, authenticate, subscribe.
// The auth and subscribe frames are fire-and-forget; the endpoint reports
// protocol errors in-band on the event feed.
func (c *Client) Connect(ctx context.Context, info *stream.ApiInfo) (*Stream, *Subscription, error) {
	if err := info.Validate(); err != nil {
		return nil, nil, err
	}

	w, err := stream.Connect(ctx, info.BaseURL, c.log)
	if err != nil {
		return nil, nil, err
	}

	if err := w.SendJSON(request{Action: "auth", KeyID: info.KeyID, Secret: info.Secret}); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("marketdata: auth: %w", err)
	}
	if err := w.SendJSON(request{Action: "subscribe", Streams: c.cfg.Streams}); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("marketdata: subscribe: %w", err)
	}

	st := newStream(w, c.cfg.BufferSize, c.log)
	sub := newSubscription(w, info.BaseURL, c.cfg.Streams)
	return st, sub, nil
}
