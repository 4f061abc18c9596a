package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send():
		require.True(t, ok, "send channel closed")
		var raw struct {
			Type    MessageType     `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &raw))
		return Message{Type: raw.Type, Payload: raw.Payload}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func requireSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send():
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubTripSubscriptions(t *testing.T) {
	require := require.New(t)
	hub := startHub(t)
	b := NewEventBroadcaster(hub, nil)

	alice := NewClient(hub, "alice")
	bob := NewClient(hub, "bob")
	hub.Register(alice)
	hub.Register(bob)
	require.Eventually(func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	HandleClientMessage(alice, []byte(`{"type":"subscribe","payload":{"tripId":"trip-1"}}`))
	require.Equal(TypeSubscribeAck, receive(t, alice).Type)

	b.BroadcastScheduleUpdated("trip-1", 3, "PROPOSED", "propose", "alice")
	msg := receive(t, alice)
	require.Equal(TypeScheduleUpdated, msg.Type)
	var payload ScheduleUpdatedPayload
	require.NoError(json.Unmarshal(msg.Payload.(json.RawMessage), &payload))
	require.Equal(int64(3), payload.Version)
	require.Equal("PROPOSED", payload.Phase)
	requireSilent(t, bob)

	b.BroadcastNotification("info", "Maintenance", "Back soon")
	require.Equal(TypeNotification, receive(t, alice).Type)
	require.Equal(TypeNotification, receive(t, bob).Type)

	HandleClientMessage(alice, []byte(`{"type":"unsubscribe","payload":{"tripId":"trip-1"}}`))
	require.Equal(TypeUnsubscribeAck, receive(t, alice).Type)
	b.BroadcastScheduleUpdated("trip-1", 4, "LOCKED", "lock", "alice")
	requireSilent(t, alice)

	hub.Unregister(bob)
	require.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	_, ok := <-bob.Send()
	require.False(ok)
	require.False(bob.Reply([]byte("late")))
}

func TestHandleClientMessageErrors(t *testing.T) {
	hub := NewHub(nil, nil)
	client := NewClient(hub, "alice")

	tests := []struct {
		name  string
		raw   string
		reply MessageType
	}{
		{"ping", `{"type":"ping"}`, TypePong},
		{"invalid json", `{`, TypeError},
		{"missing trip", `{"type":"subscribe","payload":{}}`, TypeError},
		{"unknown", `{"type":"dance"}`, TypeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			HandleClientMessage(client, []byte(tt.raw))
			require.Equal(t, tt.reply, receive(t, client).Type)
		})
	}
}

func TestHubCountCallback(t *testing.T) {
	counts := make(chan int, 4)
	hub := NewHub(nil, func(n int) { counts <- n })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, "alice")
	hub.Register(c)
	require.Equal(t, 1, <-counts)
	hub.Unregister(c)
	require.Equal(t, 0, <-counts)
}
