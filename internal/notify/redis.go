package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher is the part of *redis.Client used for publishing.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes notifications as JSON on a Redis channel so that
// every service instance (and the gateway) can forward them.
type RedisNotifier struct {
	rdb     Publisher
	channel string
}

// NewRedisNotifier publishes on EventStatusChanged.
func NewRedisNotifier(rdb Publisher) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: EventStatusChanged}
}

// Notify implements Notifier.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", r.channel, err)
	}
	return nil
}
