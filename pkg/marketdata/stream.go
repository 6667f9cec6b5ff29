// pkg/marketdata/stream.go
package marketdata

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/quantpulse/marketstream/pkg/logger"
	"github.com/quantpulse/marketstream/pkg/stream"
)

// Stream is the client-side handle over the decoded event feed. It owns the
// underlying Wrapper; closing the Stream closes the socket.
type Stream struct {
	w      *stream.Wrapper
	log    *logger.Logger
	buffer int

	once sync.Once
	out  chan stream.Outcome[Event, error]
}

func newStream(w *stream.Wrapper, buffer int, log *logger.Logger) *Stream {
	return &Stream{
		w:      w,
		log:    log,
		buffer: buffer,
		out:    make(chan stream.Outcome[Event, error], buffer),
	}
}

// Events starts the decode loop on first use and returns the event channel.
// The channel closes after a failure outcome is delivered or the stream is
// closed.
func (s *Stream) Events() <-chan stream.Outcome[Event, error] {
	s.once.Do(func() { go s.decodeLoop() })
	return s.out
}

func (s *Stream) decodeLoop() {
	defer close(s.out)
	for out := range s.w.Messages() {
		msg, ok := out.Value()
		if !ok {
			_, err := out.Unpack()
			s.log.Debug("stream terminated", zap.Inline(out))
			s.out <- stream.OutcomeOf(Event{}, err)
			return
		}

		var evt Event
		if err := json.Unmarshal(msg.Data, &evt); err != nil {
			s.out <- stream.OutcomeOf(Event{}, fmt.Errorf("marketdata: decode frame: %w", err))
			continue
		}
		evt.Raw = msg.Data
		s.out <- stream.OutcomeOf(evt, error(nil))
	}
}

// Close releases the stream and its socket.
func (s *Stream) Close() error { return s.w.Close() }
