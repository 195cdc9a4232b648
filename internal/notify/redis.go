package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"contentflow/internal/lifecycle"
)

// Publisher is the subset of a go-redis client the Redis sink needs.
// redis.UniversalClient, as returned by the fiber Redis storage Conn(), satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes events as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  Publisher
	channel string
}

// NewRedisNotifier creates a Redis pub/sub sink.
func NewRedisNotifier(client Publisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

// Name identifies the sink in logs and metrics.
func (r *RedisNotifier) Name() string {
	return "redis"
}

// Notify publishes ev. Having no subscribers is not an error.
func (r *RedisNotifier) Notify(ctx context.Context, ev lifecycle.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}
