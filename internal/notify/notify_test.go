package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	channel string
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func sampleNotification() Notification {
	at := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	return New(KindSuccess, "app_004", "Application status updated to Reviewed", &Event{
		Type:          EventStatusChanged,
		ApplicationID: "app_004",
		From:          "Pending",
		To:            "Reviewed",
		At:            at,
	}, at)
}

func TestNew_AssignsID(t *testing.T) {
	a, b := sampleNotification(), sampleNotification()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRedisNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	n := sampleNotification()

	require.NoError(t, NewRedisNotifier(pub).Notify(context.Background(), n))

	assert.Equal(t, EventStatusChanged, pub.channel)
	var got Notification
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, n, got)
}

func TestRedisNotifier_Error(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	err := NewRedisNotifier(pub).Notify(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "connection refused")
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(testLogger())
	a, unsubA := hub.Subscribe()
	b, unsubB := hub.Subscribe()
	defer unsubB()
	require.Equal(t, 2, hub.Len())

	require.NoError(t, hub.Notify(context.Background(), sampleNotification()))

	for _, ch := range []<-chan []byte{a, b} {
		select {
		case msg := <-ch:
			assert.Contains(t, string(msg), `"applicationId":"app_004"`)
		case <-time.After(time.Second):
			t.Fatal("no message received")
		}
	}

	unsubA()
	unsubA()
	assert.Equal(t, 1, hub.Len())
	_, ok := <-a
	assert.False(t, ok, "channel must be closed after unsubscribe")
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(testLogger())
	_, unsub := hub.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*2; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}

func TestMulti_JoinsErrors(t *testing.T) {
	var calls int
	ok := Func(func(context.Context, Notification) error { calls++; return nil })
	bad := Func(func(context.Context, Notification) error { calls++; return errors.New("boom") })

	err := Multi{ok, bad, ok}.Notify(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 3, calls)

	assert.NoError(t, Multi{ok}.Notify(context.Background(), sampleNotification()))
	assert.NoError(t, Discard.Notify(context.Background(), sampleNotification()))
}
