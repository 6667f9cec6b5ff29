// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/quantpulse/marketstream/pkg/backoff"
	"github.com/quantpulse/marketstream/pkg/telemetry"
)

/*
   --------------------------------------------------------------------------
   STRUCTURES
   --------------------------------------------------------------------------
*/

// Config holds every service setting.
type Config struct {
	ServiceName    string           `mapstructure:"service_name"`
	ServiceVersion string           `mapstructure:"service_version"`
	Stream         StreamConfig     `mapstructure:"stream"`
	Kafka          KafkaConfig      `mapstructure:"kafka"`
	Telemetry      telemetry.Config `mapstructure:"telemetry"`
	Logging        Logging          `mapstructure:"logging"`
	HTTP           HTTPConfig       `mapstructure:"http"`
}

// StreamConfig holds the market-data endpoint settings.
type StreamConfig struct {
	URL        string         `mapstructure:"url"` // ws:// or wss://
	KeyID      string         `mapstructure:"key_id"`
	Secret     string         `mapstructure:"secret"`
	Streams    []string       `mapstructure:"streams"`
	BufferSize int            `mapstructure:"buffer_size"`
	Backoff    backoff.Config `mapstructure:"backoff"`
}

// KafkaConfig holds the sink settings.
type KafkaConfig struct {
	Brokers        []string       `mapstructure:"brokers"`
	EventsTopic    string         `mapstructure:"events_topic"`
	Timeout        time.Duration  `mapstructure:"timeout"`
	Acks           string         `mapstructure:"acks"`
	Compression    string         `mapstructure:"compression"`
	FlushFrequency time.Duration  `mapstructure:"flush_frequency"`
	FlushMessages  int            `mapstructure:"flush_messages"`
	Backoff        backoff.Config `mapstructure:"backoff"`
}

// Logging holds the logger settings.
type Logging struct {
	Level   string `mapstructure:"level"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// HTTPConfig holds the observability server settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

/*
   --------------------------------------------------------------------------
   LOADING
   --------------------------------------------------------------------------
*/

// Load reads the config from YAML + ENV + defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// ---------- 1) Defaults ----------
	v.SetDefault("service_name", "marketstream-collector")
	v.SetDefault("service_version", "v0.1.0")
	v.SetDefault("stream.buffer_size", 100)
	v.SetDefault("kafka.events_topic", "marketdata.events")
	v.SetDefault("kafka.timeout", "5s")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.compression", "none")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev_mode", false)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("telemetry.insecure", true)

	// ---------- 2) ENV ----------
	v.SetEnvPrefix("MARKETSTREAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// ---------- 3) Optional file ----------
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", v.ConfigFileUsed(), err)
		}
	}

	// ---------- 4) Decode ----------
	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToBoolHook,
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "mapstructure",
		Result:     &cfg,
		DecodeHook: decodeHook,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// ---------- 5) Validation ----------
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// stringToBoolHook parses true/false, otherwise passes data through.
func stringToBoolHook(f, t reflect.Kind, data interface{}) (interface{}, error) {
	if f == reflect.String && t == reflect.Bool {
		return strconv.ParseBool(data.(string))
	}
	return data, nil
}

/*
   --------------------------------------------------------------------------
   VALIDATION
   --------------------------------------------------------------------------
*/

func (c *Config) Validate() error {
	// Service
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required")
	}

	// Stream
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url is required")
	}
	u, err := url.Parse(c.Stream.URL)
	if err != nil {
		return fmt.Errorf("stream.url is invalid: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("stream.url must use ws:// or wss://, got %q", u.Scheme)
	}
	if len(c.Stream.Streams) == 0 {
		return fmt.Errorf("stream.streams must contain at least one entry")
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required")
	}
	if c.Kafka.EventsTopic == "" {
		return fmt.Errorf("kafka.events_topic is required")
	}
	switch strings.ToLower(c.Kafka.Acks) {
	case "all", "leader", "none":
	default:
		return fmt.Errorf("kafka.acks must be one of [all, leader, none]")
	}
	switch strings.ToLower(c.Kafka.Compression) {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("kafka.compression must be one of [none, gzip, snappy, lz4, zstd]")
	}

	// Telemetry
	if c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.otel_endpoint is required")
	}

	// HTTP
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	return nil
}

// Print dumps the effective config to stderr with the secret redacted.
func (c *Config) Print() error {
	copied := *c
	if copied.Stream.Secret != "" {
		copied.Stream.Secret = "***"
	}
	out, err := json.MarshalIndent(copied, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "effective config:\n%s\n", out)
	return nil
}
