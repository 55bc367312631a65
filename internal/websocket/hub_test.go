package websocket

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(log.New(io.Discard))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func waitForCount(t *testing.T, hub *Hub, userID uuid.UUID, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ConnectedCount(userID) == want
	}, time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHub_NotifyReachesEveryConnectionOfUser(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()
	other := uuid.New()

	first := NewClient(hub, nil, userID)
	second := NewClient(hub, nil, userID)
	bystander := NewClient(hub, nil, other)
	hub.Register(first)
	hub.Register(second)
	hub.Register(bystander)
	waitForCount(t, hub, userID, 2)
	waitForCount(t, hub, other, 1)

	hub.Notify(userID, string(MessageTypeSubscribed), map[string]any{"subscribersCount": 1})

	for _, c := range []*Client{first, second} {
		msg := receive(t, c)
		assert.Equal(t, MessageTypeSubscribed, msg.Type)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.EqualValues(t, 1, payload["subscribersCount"])
	}

	select {
	case <-bystander.send:
		t.Fatal("bystander must not receive another user's notification")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()

	client := NewClient(hub, nil, userID)
	hub.Register(client)
	waitForCount(t, hub, userID, 1)

	hub.Unregister(client)
	waitForCount(t, hub, userID, 0)

	_, ok := <-client.send
	assert.False(t, ok)
	assert.False(t, client.enqueue([]byte("late")))
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	hub := newTestHub(t)
	userID := uuid.New()

	client := NewClient(hub, nil, userID)
	hub.Register(client)
	waitForCount(t, hub, userID, 1)

	for i := 0; i < cap(client.send)+10; i++ {
		hub.Notify(userID, string(MessageTypeCommentAdded), i)
	}

	require.Eventually(t, func() bool {
		return len(client.send) == cap(client.send)
	}, time.Second, 5*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(log.New(io.Discard))
	go hub.Run()

	client := NewClient(hub, nil, uuid.New())
	hub.Register(client)
	waitForCount(t, hub, client.UserID(), 1)

	hub.Stop()

	_, ok := <-client.send
	assert.False(t, ok)

	// Calls after Stop must not block.
	hub.Unregister(client)
	hub.Notify(client.UserID(), string(MessageTypeSubscribed), nil)
}
