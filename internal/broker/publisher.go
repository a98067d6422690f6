package broker

import "context"

// Publisher defines the interface for dispatching jobs to downstream consumers.
type Publisher interface {
	// Publish serializes the payload and enqueues it on the named topic
	Publish(ctx context.Context, topic string, payload interface{}) error

	// Close releases the underlying connection
	Close() error
}
