package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stream_ledger/internal/notify"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubNotify_OnlyTargetUser(t *testing.T) {
	hub := NewHub()
	alice := &Client{UserID: "alice", Send: make(chan []byte, 1), Hub: hub}
	bob := &Client{UserID: "bob", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(alice)
	hub.Register(bob)

	require.NoError(t, hub.Notify(context.Background(), notify.Notification{UserID: "alice", Kind: notify.KindWarning, Title: "Warning"}))

	select {
	case frame := <-alice.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		assert.Equal(t, MsgNotification, env.Type)
		var n notify.Notification
		require.NoError(t, json.Unmarshal(env.Payload, &n))
		assert.Equal(t, notify.KindWarning, n.Kind)
	default:
		t.Fatal("alice got nothing")
	}
	assert.Empty(t, bob.Send)
}

func TestHubNotify_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: "u", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(c)

	n := notify.Notification{UserID: "u", Kind: notify.KindGift}
	require.NoError(t, hub.Notify(context.Background(), n))
	require.NoError(t, hub.Notify(context.Background(), n))
	assert.Len(t, c.Send, 1)
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	a := &Client{UserID: "u", Send: make(chan []byte, 1), Hub: hub}
	b := &Client{UserID: "u", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.Online("u"))

	hub.Unregister(a)
	hub.Unregister(b)
	assert.Equal(t, 0, hub.Online("u"))
}

func readFrame(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestClient_EndToEnd(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go NewClient("viewer", conn, hub).Run()
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, MsgReady, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, MsgPong, readFrame(t, conn).Type)

	require.NoError(t, hub.Notify(context.Background(), notify.Notification{UserID: "viewer", Kind: notify.KindBan}))
	assert.Equal(t, MsgNotification, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`nope`)))
	assert.Equal(t, MsgError, readFrame(t, conn).Type)
}
