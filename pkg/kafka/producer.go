// pkg/kafka/producer.go
package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/dnwe/otelsarama"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quantpulse/marketstream/pkg/backoff"
	"github.com/quantpulse/marketstream/pkg/logger"
)

var tracer = otel.Tracer("marketstream/kafka")

var (
	metricsOnce     sync.Once
	connectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream", Subsystem: "kafka_producer", Name: "connect_attempts_total",
		Help: "Kafka producer connect attempts",
	})
	publishErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "marketstream", Subsystem: "kafka_producer", Name: "publish_errors_total",
		Help: "Publish errors",
	})
	publishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "marketstream", Subsystem: "kafka_producer", Name: "publish_latency_seconds",
		Help:    "Publish latency (seconds)",
		Buckets: prometheus.DefBuckets,
	})
)

func registerMetrics(r prometheus.Registerer) {
	metricsOnce.Do(func() {
		r.MustRegister(connectAttempts, publishErrors, publishLatency)
	})
}

// Config groups all tunables for a Kafka sync-producer. Zero values are
// replaced with sane defaults by applyDefaults().
type Config struct {
	Brokers []string `mapstructure:"brokers"`

	// RequiredAcks: "all" (default) | "leader" | "none".
	RequiredAcks string `mapstructure:"acks"`

	// Timeout is the max wait for an ack from the cluster.
	Timeout time.Duration `mapstructure:"timeout"`

	// Compression: "none" (default), "gzip", "snappy", "lz4", "zstd".
	Compression string `mapstructure:"compression"`

	// FlushFrequency flushes the producer buffer periodically. Zero → disable.
	FlushFrequency time.Duration `mapstructure:"flush_frequency"`

	// FlushMessages flushes after this many buffered messages. Zero → disable.
	FlushMessages int `mapstructure:"flush_messages"`

	// Backoff governs connect and publish retries.
	Backoff backoff.Config `mapstructure:"backoff"`
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "all"
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka producer: brokers required")
	}
	return nil
}

func buildSaramaConfig(c Config) (*sarama.Config, error) {
	sc := sarama.NewConfig()

	switch strings.ToLower(c.RequiredAcks) {
	case "all":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("kafka producer: invalid RequiredAcks %q", c.RequiredAcks)
	}

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Timeout = c.Timeout
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1

	if c.FlushFrequency > 0 {
		sc.Producer.Flush.Frequency = c.FlushFrequency
	}
	if c.FlushMessages > 0 {
		sc.Producer.Flush.Messages = c.FlushMessages
	}

	switch strings.ToLower(c.Compression) {
	case "none":
		sc.Producer.Compression = sarama.CompressionNone
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		sc.Producer.Compression = sarama.CompressionZSTD
	default:
		return nil, fmt.Errorf("kafka producer: invalid Compression %q", c.Compression)
	}

	return sc, nil
}

type kafkaProducer struct {
	prod       sarama.SyncProducer
	client     sarama.Client
	log        *logger.Logger
	backoffCfg backoff.Config
}

// New creates a SyncProducer with connect retries and OTel instrumentation.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Producer, error) {
	registerMetrics(prometheus.DefaultRegisterer)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log = log.Named("kafka-producer")

	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := sarama.NewClient(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: new client: %w", err)
	}

	var syncProd sarama.SyncProducer
	connect := func(ctx context.Context) error {
		connectAttempts.Inc()
		p, err := sarama.NewSyncProducerFromClient(client)
		if err != nil {
			return err
		}
		syncProd = p
		return nil
	}

	ctxConn, span := tracer.Start(ctx, "Connect",
		trace.WithAttributes(attribute.StringSlice("brokers", cfg.Brokers)))
	if err := backoff.Execute(ctxConn, cfg.Backoff, log, connect); err != nil {
		span.RecordError(err)
		span.End()
		_ = client.Close()
		log.Error("kafka producer connect failed", zap.Error(err))
		return nil, fmt.Errorf("kafka producer: connect: %w", err)
	}
	span.End()

	wrapped := otelsarama.WrapSyncProducer(sc, syncProd)

	log.Info("kafka producer ready", zap.Strings("brokers", cfg.Brokers))
	return &kafkaProducer{
		prod:       wrapped,
		client:     client,
		log:        log,
		backoffCfg: cfg.Backoff,
	}, nil
}

// Publish sends one message with retries.
func (k *kafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	ctxPub, span := tracer.Start(ctx, "Publish",
		trace.WithAttributes(attribute.String("topic", topic)))
	defer span.End()
	start := time.Now()

	send := func(ctx context.Context) error {
		msg := &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.ByteEncoder(key),
			Value: sarama.ByteEncoder(value),
		}
		_, _, err := k.prod.SendMessage(msg)
		return err
	}

	err := backoff.Execute(ctxPub, k.backoffCfg, k.log, send)
	publishLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		publishErrors.Inc()
		span.RecordError(err)
		return fmt.Errorf("kafka producer: publish to %q: %w", topic, err)
	}
	return nil
}

// Ping refreshes broker metadata to verify the cluster is reachable.
func (k *kafkaProducer) Ping() error {
	if err := k.client.RefreshMetadata(); err != nil {
		return fmt.Errorf("kafka producer: ping: %w", err)
	}
	return nil
}

// Close shuts down the producer and the shared client.
func (k *kafkaProducer) Close() error {
	prodErr := k.prod.Close()
	clientErr := k.client.Close()
	if prodErr != nil {
		return fmt.Errorf("kafka producer: close: %w", prodErr)
	}
	if clientErr != nil {
		return fmt.Errorf("kafka producer: close client: %w", clientErr)
	}
	return nil
}
