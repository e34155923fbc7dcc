package broker

import "context"

// Broker defines the interface for pub/sub broker operations.
// This allows us to mock it easily in tests without depending on a live
// broker. The engine only ever publishes; it never subscribes.
type Broker interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	IsConnected() bool
	Close()
}
