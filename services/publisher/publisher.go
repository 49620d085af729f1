package publisher

import "context"

// Publisher represents a service for publishing crawl results
type Publisher interface {
	// Publish appends one message under key to the stream
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}
