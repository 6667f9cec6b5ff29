// internal/app/collector.go
package app

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantpulse/marketstream/internal/config"
	"github.com/quantpulse/marketstream/internal/httpsrv"
	"github.com/quantpulse/marketstream/internal/metrics"
	"github.com/quantpulse/marketstream/internal/sink"
	"github.com/quantpulse/marketstream/pkg/backoff"
	"github.com/quantpulse/marketstream/pkg/kafka"
	"github.com/quantpulse/marketstream/pkg/logger"
	"github.com/quantpulse/marketstream/pkg/marketdata"
	"github.com/quantpulse/marketstream/pkg/stream"
	"github.com/quantpulse/marketstream/pkg/telemetry"
)

// Run wires the collector together and blocks until ctx is cancelled or a
// fatal error occurs. The stream core performs single connection attempts;
// the reconnect policy lives here, around it.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	metrics.Register()

	// Tracing
	cfg.Telemetry.ServiceName = cfg.ServiceName
	cfg.Telemetry.ServiceVersion = cfg.ServiceVersion
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownSafe(ctx, "telemetry", func() error { return shutdownTracer(ctx) }, log)

	// Endpoint + credentials (URL validity checked by config.Validate)
	baseURL, err := url.Parse(cfg.Stream.URL)
	if err != nil {
		return fmt.Errorf("parse stream url: %w", err)
	}
	info := &stream.ApiInfo{
		BaseURL: baseURL,
		KeyID:   cfg.Stream.KeyID,
		Secret:  cfg.Stream.Secret,
	}

	// Market-data client
	client, err := marketdata.NewClient(marketdata.Config{
		Streams:    cfg.Stream.Streams,
		BufferSize: cfg.Stream.BufferSize,
	}, log)
	if err != nil {
		return fmt.Errorf("marketdata client init: %w", err)
	}

	// Kafka producer
	prod, err := kafka.New(ctx, kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		RequiredAcks:   cfg.Kafka.Acks,
		Timeout:        cfg.Kafka.Timeout,
		Compression:    cfg.Kafka.Compression,
		FlushFrequency: cfg.Kafka.FlushFrequency,
		FlushMessages:  cfg.Kafka.FlushMessages,
		Backoff:        cfg.Kafka.Backoff,
	}, log)
	if err != nil {
		return fmt.Errorf("kafka producer init: %w", err)
	}
	defer shutdownSafe(ctx, "kafka-producer", prod.Close, log)

	events := sink.New(prod, cfg.Kafka.EventsTopic, log)

	// Observability server
	httpSrv := httpsrv.New(cfg.HTTP.Addr, prod.Ping, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(ctx) })

	// Main stream→Kafka loop
	g.Go(func() error {
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			var st *marketdata.Stream
			connect := func(ctx context.Context) error {
				s, sub, err := client.Connect(ctx, info)
				if err != nil {
					metrics.ConnectsTotal.WithLabelValues("error").Inc()
					return err
				}
				metrics.ConnectsTotal.WithLabelValues("ok").Inc()
				log.Info("stream connected",
					zap.String("endpoint", sub.Endpoint().String()),
					zap.Strings("streams", sub.Streams()),
				)
				st = s
				return nil
			}
			if err := backoff.Execute(ctx, cfg.Stream.Backoff, log, connect); err != nil {
				return fmt.Errorf("stream connect: %w", err)
			}

			// cancelled ctx must unblock the event loop by closing the socket
			stop := context.AfterFunc(ctx, func() { _ = st.Close() })
			for out := range st.Events() {
				if err := events.Process(ctx, out); err != nil {
					log.Warn("stream interrupted, reconnecting", zap.Error(err))
					break
				}
			}
			stop()
			_ = st.Close()
			for range st.Events() {
				// drain so the decode goroutine can exit
			}
		}
	})

	return g.Wait()
}

// shutdownSafe runs fn on the way out and logs instead of failing.
func shutdownSafe(ctx context.Context, name string, fn func() error, log *logger.Logger) {
	if err := fn(); err != nil && ctx.Err() == nil {
		log.Error("shutdown failed", zap.String("component", name), zap.Error(err))
	}
}
