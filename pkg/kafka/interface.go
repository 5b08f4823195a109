// pkg/kafka/interface.go
package kafka

import "context"

// Producer is the contract for publishing decoded feed events to Kafka.
type Producer interface {
	// Publish sends a message to the given topic.
	Publish(ctx context.Context, topic string, key, value []byte) error
	// Ping verifies that Kafka is reachable (refreshes metadata).
	Ping() error
	// Close shuts down the producer and the underlying client.
	Close() error
}
