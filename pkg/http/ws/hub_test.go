package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dial serves one upgraded connection through hub under connID and returns the client side.
func dial(t *testing.T, hub *Hub, connID string, handler func(Message) error) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(c, zerolog.Nop())
		hub.Register(connID, conn)
		close(registered)
		go conn.WritePump()
		conn.ReadPump(handler)
		hub.Unregister(connID)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not registered")
	}
	return client
}

func readMessage(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func TestHubSendDeliversTypedPayload(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := dial(t, hub, "c1", func(Message) error { return nil })

	require.NoError(t, hub.Send("c1", TypeLobbyCreated, LobbyCreatedPayload{RoomID: "ABC123"}))

	msg := readMessage(t, client)
	assert.Equal(t, TypeLobbyCreated, msg.Type)
	var payload LobbyCreatedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "ABC123", payload.RoomID)
}

func TestHubSendUnknownConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.ErrorIs(t, hub.Send("missing", TypeWaiting, nil), ErrConnectionNotFound)
}

func TestHubReadPumpDispatchesInOrder(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	got := make(chan string, 2)
	client := dial(t, hub, "c1", func(m Message) error {
		got <- m.Type
		return nil
	})

	require.NoError(t, client.WriteJSON(Message{Type: TypeFindMatch, Payload: json.RawMessage(`{"mode":"casual"}`)}))
	require.NoError(t, client.WriteJSON(Message{Type: TypeCancelSearch, Payload: json.RawMessage(`{}`)}))

	assert.Equal(t, TypeFindMatch, <-got)
	assert.Equal(t, TypeCancelSearch, <-got)
}

func TestHubBroadcastAllAndUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := dial(t, hub, "a", func(Message) error { return nil })
	b := dial(t, hub, "b", func(Message) error { return nil })
	assert.Equal(t, 2, hub.Count())

	require.NoError(t, hub.BroadcastAll(TypeLeaderboardUpdate, map[string]int{"n": 1}))
	assert.Equal(t, TypeLeaderboardUpdate, readMessage(t, a).Type)
	assert.Equal(t, TypeLeaderboardUpdate, readMessage(t, b).Type)

	hub.Unregister("a")
	assert.Equal(t, 1, hub.Count())
	assert.ErrorIs(t, hub.Send("a", TypeWaiting, nil), ErrConnectionNotFound)
}

func TestConnectionSendAfterClose(t *testing.T) {
	c := &Connection{sendCh: make(chan Message, 1)}
	c.Close()
	c.Close()
	assert.ErrorIs(t, c.Send(Message{Type: TypeWaiting}), ErrConnectionClosed)
}
