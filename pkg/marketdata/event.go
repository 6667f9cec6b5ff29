// pkg/marketdata/event.go
package marketdata

import "encoding/json"

// Event is one decoded frame from the market-data stream.
type Event struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data,omitempty"`

	// Raw keeps the original frame bytes for pass-through consumers.
	Raw []byte `json:"-"`
}

// request is the control-message shape the endpoint understands.
type request struct {
	Action  string   `json:"action"`
	KeyID   string   `json:"key,omitempty"`
	Secret  string   `json:"secret,omitempty"`
	Streams []string `json:"streams,omitempty"`
}
