package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arlen/lectern/internal/logger"
)

// Config holds Redis broker configuration
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisPublisher implements Publisher using Redis lists as job queues.
// Consumers drain each topic with a blocking pop, so every job is delivered
// to exactly one worker.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a Redis-backed publisher and verifies connectivity.
// Parameters:
//   - cfg: Redis connection configuration.
// Returns:
//   - *RedisPublisher: connected publisher instance.
//   - error: non-nil if the connection cannot be established.
func NewRedisPublisher(cfg *Config) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisPublisher{client: client}, nil
}

// Publish serializes the payload as JSON and pushes it onto the topic's list.
// Parameters:
//   - ctx: request context for cancellation.
//   - topic: queue name to push onto.
//   - payload: job payload to serialize.
// Returns:
//   - error: non-nil if serialization or the push fails.
func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %s: %w", topic, err)
	}

	if err := p.client.LPush(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	logger.CtxDebug(ctx, "Published job to topic %s (%d bytes)", topic, len(data))
	return nil
}

// Close releases the Redis connection.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
