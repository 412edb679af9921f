package publisher

import "context"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream under the given field key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// Noop discards every message. It is used when no redis address is set.
type Noop struct{}

func (Noop) Publish(ctx context.Context, key string, message []byte) error { return nil }

func (Noop) TrimStreams(ctx context.Context) error { return nil }

func (Noop) Close() error { return nil }
