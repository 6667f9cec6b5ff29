// internal/sink/sink.go
package sink

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/quantpulse/marketstream/internal/metrics"
	"github.com/quantpulse/marketstream/pkg/kafka"
	"github.com/quantpulse/marketstream/pkg/logger"
	"github.com/quantpulse/marketstream/pkg/marketdata"
	"github.com/quantpulse/marketstream/pkg/stream"
)

var tracer = otel.Tracer("marketstream/sink")

// Sink publishes decoded stream outcomes to Kafka.
type Sink struct {
	producer kafka.Producer
	topic    string
	log      *logger.Logger
}

// New builds a Sink targeting topic.
func New(producer kafka.Producer, topic string, log *logger.Logger) *Sink {
	return &Sink{
		producer: producer,
		topic:    topic,
		log:      log.Named("sink"),
	}
}

// Process handles one outcome. A failure outcome terminates the current
// stream, so its error is returned to let the caller reconnect.
func (s *Sink) Process(ctx context.Context, out stream.Outcome[marketdata.Event, error]) error {
	evt, ok := out.Value()
	if !ok {
		_, err := out.Unpack()
		metrics.StreamErrors.Inc()
		s.log.Warn("stream failure outcome", zap.Inline(out))
		return err
	}

	ctx, span := tracer.Start(ctx, "Process",
		trace.WithAttributes(attribute.String("event.stream", evt.Stream)))
	defer span.End()

	metrics.EventsTotal.Inc()
	start := time.Now()

	if err := s.producer.Publish(ctx, s.topic, []byte(evt.Stream), evt.Raw); err != nil {
		metrics.PublishErrors.Inc()
		s.log.Error("publish failed", zap.String("stream", evt.Stream), zap.Error(err))
		span.RecordError(err)
		return err
	}

	metrics.PublishLatency.Observe(time.Since(start).Seconds())
	return nil
}
