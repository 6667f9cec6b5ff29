// pkg/marketdata/config.go
package marketdata

import "fmt"

// Config holds the subscription parameters for the market-data client.
type Config struct {
	Streams    []string `mapstructure:"streams"`     // e.g. ["btcusdt@trade","ethusdt@depth"]
	BufferSize int      `mapstructure:"buffer_size"` // decoded-event channel capacity
}

// ApplyDefaults applies fallback defaults if values are unset.
func (c *Config) ApplyDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = 100
	}
}

// Validate checks config for required fields.
func (c *Config) Validate() error {
	if len(c.Streams) == 0 {
		return fmt.Errorf("marketdata: at least one stream is required")
	}
	return nil
}
