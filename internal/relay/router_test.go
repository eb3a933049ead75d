package relay

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, c *Conn) Event {
	t.Helper()
	select {
	case e := <-c.Events:
		return e
	case <-time.After(time.Second):
		t.Fatalf("connection %s received no event", c.ID)
		return Event{}
	}
}

func assertNoEvent(t *testing.T, c *Conn) {
	t.Helper()
	select {
	case e := <-c.Events:
		t.Fatalf("connection %s unexpectedly received %s event", c.ID, e.Type)
	default:
	}
}

func TestRouter_Join(t *testing.T) {
	t.Run("notifies existing members, not the joiner", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		host := NewConn(nil, "S1", RoleHost)
		guest := NewConn(nil, "S1", RoleGuest)

		rt.Join(host)
		assertNoEvent(t, host)

		rt.Join(guest)

		event := recvEvent(t, host)
		assert.Equal(t, EventSystemNotification, event.Type)

		var notice Notification
		require.NoError(t, json.Unmarshal(event.Data, &notice))
		assert.Equal(t, "A new guest has joined.", notice.Text)

		assertNoEvent(t, guest)
	})

	t.Run("host join uses host text", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		guest := NewConn(nil, "S1", RoleGuest)
		host := NewConn(nil, "S1", RoleHost)

		rt.Join(guest)
		rt.Join(host)

		event := recvEvent(t, guest)
		var notice Notification
		require.NoError(t, json.Unmarshal(event.Data, &notice))
		assert.Equal(t, "The host has joined.", notice.Text)
	})

	t.Run("join notice stays within the channel", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		other := NewConn(nil, "S2", RoleHost)
		rt.Join(other)

		rt.Join(NewConn(nil, "S1", RoleHost))

		assertNoEvent(t, other)
	})
}

func TestRouter_ChatRelay(t *testing.T) {
	payload := json.RawMessage(`{"id":"m1","sender":"Priya","text":"hello"}`)

	t.Run("delivers to other members without echoing to sender", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		a := NewConn(nil, "S1", RoleHost)
		b := NewConn(nil, "S1", RoleGuest)

		rt.Join(a)
		rt.Join(b)
		recvEvent(t, a) // drain b's join notice

		rt.Dispatch(rt.HandlerTable(), a, Event{Type: EventChatSend, Data: payload})

		event := recvEvent(t, b)
		assert.Equal(t, EventChatReceive, event.Type)
		assert.JSONEq(t, string(payload), string(event.Data), "payload should be relayed verbatim")

		assertNoEvent(t, a)
	})

	t.Run("does not cross channels", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		a := NewConn(nil, "S1", RoleHost)
		stranger := NewConn(nil, "S2", RoleGuest)

		rt.Join(a)
		rt.Join(stranger)

		rt.Dispatch(rt.HandlerTable(), a, Event{Type: EventChatSend, Data: payload})

		assertNoEvent(t, stranger)
	})
}

func TestRouter_Leave(t *testing.T) {
	t.Run("remaining member receives exactly one notice", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		a := NewConn(nil, "S1", RoleHost)
		b := NewConn(nil, "S1", RoleGuest)

		rt.Join(a)
		rt.Join(b)
		recvEvent(t, a) // drain b's join notice

		rt.Leave(b)

		event := recvEvent(t, a)
		assert.Equal(t, EventSystemNotification, event.Type)

		var notice Notification
		require.NoError(t, json.Unmarshal(event.Data, &notice))
		assert.Equal(t, "A participant has left the session.", notice.Text)

		assert.Equal(t, 1, rt.Registry().MemberCount("S1"))
		assertNoEvent(t, a)
	})

	t.Run("duplicate leave produces no second notice", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		a := NewConn(nil, "S1", RoleHost)
		b := NewConn(nil, "S1", RoleGuest)

		rt.Join(a)
		rt.Join(b)
		recvEvent(t, a)

		rt.Leave(b)
		recvEvent(t, a)

		rt.Leave(b)
		assertNoEvent(t, a)
	})
}

func TestRouter_Dispatch(t *testing.T) {
	t.Run("unknown event type earns a private error", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		a := NewConn(nil, "S1", RoleHost)
		b := NewConn(nil, "S1", RoleGuest)

		rt.Join(a)
		rt.Join(b)
		recvEvent(t, a)

		rt.Dispatch(rt.HandlerTable(), a, Event{Type: "video:start", Data: nil})

		event := recvEvent(t, a)
		assert.Equal(t, EventError, event.Type)

		var errMsg ErrorMessage
		require.NoError(t, json.Unmarshal(event.Data, &errMsg))
		assert.Contains(t, errMsg.Message, "video:start")

		assertNoEvent(t, b)
	})

	t.Run("handler table covers exactly the inbound event types", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		handlers := rt.HandlerTable()

		assert.Len(t, handlers, 1)
		assert.Contains(t, handlers, EventChatSend)
	})
}

func TestRouter_Shutdown(t *testing.T) {
	t.Run("closes every live connection", func(t *testing.T) {
		rt := NewRouter(NewRegistry())
		a := NewConn(nil, "S1", RoleHost)
		b := NewConn(nil, "S2", RoleHost)
		rt.Join(a)
		rt.Join(b)

		rt.Shutdown()

		select {
		case <-a.done:
		default:
			t.Fatal("connection a should be closed")
		}
		select {
		case <-b.done:
		default:
			t.Fatal("connection b should be closed")
		}
	})
}
