package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UtpalSharma619/Ashtavakra/internal/relay"
)

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
}

func readEvent(t *testing.T, conn *websocket.Conn) relay.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event relay.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestWSHandler_Handshake(t *testing.T) {
	t.Run("rejects handshake without sessionId", func(t *testing.T) {
		registry := relay.NewRegistry()
		h := NewWSHandler(relay.NewRouter(registry), "")
		srv := httptest.NewServer(h)
		defer srv.Close()

		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "role=guest"), nil)

		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, 0, registry.TotalConnections(), "rejected handshake must never enter the registry")
	})

	t.Run("rejects handshake with unknown role", func(t *testing.T) {
		registry := relay.NewRegistry()
		h := NewWSHandler(relay.NewRouter(registry), "")
		srv := httptest.NewServer(h)
		defer srv.Close()

		_, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "sessionId=S1&role=admin"), nil)

		assert.ErrorIs(t, err, websocket.ErrBadHandshake)
		assert.Equal(t, 0, registry.TotalConnections())
	})

	t.Run("accepts handshake with sessionId and registers the connection", func(t *testing.T) {
		registry := relay.NewRegistry()
		h := NewWSHandler(relay.NewRouter(registry), "")
		srv := httptest.NewServer(h)
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "sessionId=S1&role=host"), nil)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool {
			return registry.MemberCount("S1") == 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestWSHandler_Relay(t *testing.T) {
	registry := relay.NewRegistry()
	h := NewWSHandler(relay.NewRouter(registry), "")
	srv := httptest.NewServer(h)
	defer srv.Close()

	host, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "sessionId=S1&role=host"), nil)
	require.NoError(t, err)
	defer host.Close()

	guest, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "sessionId=S1&role=guest"), nil)
	require.NoError(t, err)

	t.Run("host is notified when guest joins", func(t *testing.T) {
		event := readEvent(t, host)
		assert.Equal(t, relay.EventSystemNotification, event.Type)
		assert.Contains(t, string(event.Data), "A new guest has joined.")
	})

	t.Run("chat is delivered to the other member, not echoed", func(t *testing.T) {
		payload := `{"id":"m1","sender":"Priya","text":"hello"}`
		require.NoError(t, host.WriteJSON(relay.Event{
			Type: relay.EventChatSend,
			Data: []byte(payload),
		}))

		event := readEvent(t, guest)
		assert.Equal(t, relay.EventChatReceive, event.Type)
		assert.JSONEq(t, payload, string(event.Data))

		// If the relay had echoed, the echo would arrive before this reply.
		require.NoError(t, guest.WriteJSON(relay.Event{
			Type: relay.EventChatSend,
			Data: []byte(`{"id":"m2","sender":"Dana","text":"hi back"}`),
		}))
		event = readEvent(t, host)
		assert.Equal(t, relay.EventChatReceive, event.Type)
		assert.Contains(t, string(event.Data), "hi back")
	})

	t.Run("malformed event earns a private error", func(t *testing.T) {
		require.NoError(t, guest.WriteMessage(websocket.TextMessage, []byte("not json")))

		event := readEvent(t, guest)
		assert.Equal(t, relay.EventError, event.Type)
	})

	t.Run("remaining member is notified on disconnect", func(t *testing.T) {
		guest.Close()

		event := readEvent(t, host)
		assert.Equal(t, relay.EventSystemNotification, event.Type)
		assert.Contains(t, string(event.Data), "A participant has left the session.")

		require.Eventually(t, func() bool {
			return registry.MemberCount("S1") == 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}
