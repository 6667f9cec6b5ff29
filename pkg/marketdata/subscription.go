// pkg/marketdata/subscription.go
package marketdata

import (
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/quantpulse/marketstream/pkg/stream"
)

// Subscription is the handle over the active stream set. It shares the
// Wrapper with the Stream but only ever writes.
type Subscription struct {
	w        *stream.Wrapper
	endpoint *url.URL

	mu      sync.Mutex
	streams []string
}

func newSubscription(w *stream.Wrapper, endpoint *url.URL, streams []string) *Subscription {
	return &Subscription{
		w:        w,
		endpoint: endpoint,
		streams:  slices.Clone(streams),
	}
}

// Endpoint returns the URL the subscription is bound to.
func (s *Subscription) Endpoint() *url.URL { return s.endpoint }

// Streams returns a copy of the currently subscribed streams.
func (s *Subscription) Streams() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.streams)
}

// Subscribe adds streams to the subscription.
func (s *Subscription) Subscribe(streams ...string) error {
	if len(streams) == 0 {
		return nil
	}
	if err := s.w.SendJSON(request{Action: "subscribe", Streams: streams}); err != nil {
		return fmt.Errorf("marketdata: subscribe: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range streams {
		if !slices.Contains(s.streams, st) {
			s.streams = append(s.streams, st)
		}
	}
	return nil
}

// Unsubscribe removes streams from the subscription.
func (s *Subscription) Unsubscribe(streams ...string) error {
	if len(streams) == 0 {
		return nil
	}
	if err := s.w.SendJSON(request{Action: "unsubscribe", Streams: streams}); err != nil {
		return fmt.Errorf("marketdata: unsubscribe: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams = slices.DeleteFunc(s.streams, func(st string) bool {
		return slices.Contains(streams, st)
	})
	return nil
}
