package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
	return Message{}
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := runHub(t)
	a, b := NewClient(hub), NewClient(hub)
	hub.Register(a)
	hub.Register(b)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	NewEventBroadcaster(hub).BroadcastNotification("info", "Sync", "done")

	assert.Equal(t, TypeNotification, receive(t, a).Type)
	assert.Equal(t, TypeNotification, receive(t, b).Type)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	c := NewClient(hub)
	hub.Register(c)
	hub.Unregister(c)

	select {
	case _, ok := <-c.Send():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Zero(t, hub.ClientCount())
}

func TestBroadcastCalendarSyncReportsPartial(t *testing.T) {
	hub := runHub(t)
	c := NewClient(hub)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b := NewEventBroadcaster(hub)
	b.BroadcastCalendarSyncCompleted(models.CalendarSyncResult{Properties: 7, Loaded: 6, Failed: 1}, nil)

	msg := receive(t, c)
	assert.Equal(t, TypeCalendarSyncCompleted, msg.Type)
	payload := msg.Payload.(map[string]any)
	assert.Equal(t, "partial", payload["status"])
	assert.EqualValues(t, 1, payload["failed"])

	b.BroadcastCalendarSyncError(errors.New("catalog unavailable"))
	assert.Equal(t, TypeCalendarSyncError, receive(t, c).Type)
}

func TestNilBroadcasterIsNoop(t *testing.T) {
	var b *EventBroadcaster
	assert.NotPanics(t, func() {
		b.BroadcastCatalogRefreshed(3, true)
	})
	assert.Nil(t, NewEventBroadcaster(nil))
}

func TestHubSendToRegisteredClientOnly(t *testing.T) {
	hub := runHub(t)
	c := NewClient(hub)
	assert.False(t, hub.SendTo(c, []byte(`{}`)))

	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	msg, err := NewMessage(TypePong, nil).JSON()
	require.NoError(t, err)
	require.True(t, hub.SendTo(c, msg))
	assert.Equal(t, TypePong, receive(t, c).Type)
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		c := NewClient(hub)
		hub.Register(c)
		hub.Unregister(c)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register blocked on a stopped hub")
	}
}
