package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRelay_ForwardsPublishedNotifications(t *testing.T) {
	mr, rdb := newRedis(t)
	hub := NewHub(testLogger())
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Relay(ctx, rdb) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(EventStatusChanged)[EventStatusChanged] == 1
	}, 2*time.Second, 10*time.Millisecond)

	n := sampleNotification()
	require.NoError(t, NewRedisNotifier(rdb).Notify(context.Background(), n))

	select {
	case msg := <-ch:
		var got Notification
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, n, got)
	case <-time.After(2 * time.Second):
		t.Fatal("relayed notification not received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}

func TestRelay_SubscribeFailure(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := NewHub(testLogger()).Relay(ctx, rdb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribe "+EventStatusChanged)
}
