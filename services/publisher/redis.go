package publisher

import (
	"context"

	crawlerrors "sjsage522/estateworker/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher on a Redis stream
type RedisPublisher struct {
	client          *redis.Client
	stream          string
	streamMaxLength int64
}

// NewRedisPublisher creates a new Redis publisher writing to stream
func NewRedisPublisher(addr string, db int, stream string, streamMaxLength int64) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		stream:          stream,
		streamMaxLength: streamMaxLength,
	}
}

// Ping checks the connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return crawlerrors.NewPublisher("redis ping failed", err)
	}
	return nil
}

// Publish adds message to the stream as the value of field key
func (p *RedisPublisher) Publish(ctx context.Context, key string, message []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			key: string(message),
		},
	}).Err()
	if err != nil {
		return crawlerrors.NewPublisher("failed to publish to "+p.stream, err)
	}
	return nil
}

// TrimStreams trims the stream to the configured maximum length
func (p *RedisPublisher) TrimStreams(ctx context.Context) error {
	if p.streamMaxLength <= 0 {
		return nil
	}
	if err := p.client.XTrimMaxLen(ctx, p.stream, p.streamMaxLength).Err(); err != nil {
		return crawlerrors.NewPublisher("failed to trim "+p.stream, err)
	}
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
