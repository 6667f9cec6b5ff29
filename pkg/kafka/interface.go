// pkg/kafka/interface.go
package kafka

import "context"

// Producer is the publishing contract the collector depends on.
type Producer interface {
	// Publish sends one message to the given topic.
	Publish(ctx context.Context, topic string, key, value []byte) error
	// Ping checks broker availability (metadata refresh).
	Ping() error
	// Close shuts the producer and client down.
	Close() error
}
