package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const clientBuffer = 16

// Hub fans notifications out to in-process subscribers (websocket clients).
// A subscriber that falls behind loses messages rather than blocking the
// transition that produced them.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	logger  *slog.Logger
}

// NewHub returns an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{clients: make(map[chan []byte]struct{}), logger: logger}
}

// Subscribe registers a new client. The returned function unregisters it and
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client added", "clients", n)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			n := len(h.clients)
			h.mu.Unlock()
			close(ch)
			h.logger.Info("client removed", "clients", n)
		})
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every client.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("dropping notification for slow client")
		}
	}
}

// Notify implements Notifier.
func (h *Hub) Notify(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	h.Broadcast(payload)
	return nil
}

// Subscriber is the part of *redis.Client used by Relay.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Relay forwards every message published on EventStatusChanged into the hub
// until ctx is cancelled.
func (h *Hub) Relay(ctx context.Context, rdb Subscriber) error {
	sub := rdb.Subscribe(ctx, EventStatusChanged)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", EventStatusChanged, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.Broadcast([]byte(msg.Payload))
		}
	}
}
