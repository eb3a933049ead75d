package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMessageSize  = 4096
	eventBufferSize = 100
)

// ErrMalformedEvent marks an inbound frame that did not decode as an event
// envelope. The connection itself is still usable afterwards.
var ErrMalformedEvent = errors.New("malformed event")

// Conn is one live transport endpoint. It belongs to exactly one session
// channel for its entire lifetime; a reconnect is always a brand new Conn
// with a new id.
type Conn struct {
	ID        string
	SessionID string
	Role      Role

	// Events is the outbound queue drained by the write pump. Each
	// recipient observes events in the order they were enqueued.
	Events chan Event

	ws        *websocket.Conn
	closeOnce sync.Once
	done      chan struct{}
}

func NewConn(ws *websocket.Conn, sessionID string, role Role) *Conn {
	return &Conn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Events:    make(chan Event, eventBufferSize),
		ws:        ws,
		done:      make(chan struct{}),
	}
}

// Enqueue hands an event to this connection's writer. A slow consumer
// drops events instead of blocking the sender.
func (c *Conn) Enqueue(event Event) {
	select {
	case c.Events <- event:
	default:
		log.Warn().
			Str("connId", c.ID).
			Str("sessionId", c.SessionID).
			Str("eventType", event.Type).
			Msg("connection event buffer full, dropping event")
	}
}

// Close tears down the transport. Safe to call from any exit path, any
// number of times.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			c.ws.Close()
		}
	})
}

// ReadEvent blocks for the next inbound event. A transport-level error is
// terminal; a decode failure returns ErrMalformedEvent and the caller may
// keep reading.
func (c *Conn) ReadEvent() (Event, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return Event{}, err
	}

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return event, nil
}

// configureRead arms the read side: message size cap and pong-refreshed
// deadlines so a half-dead transport surfaces as a read error.
func (c *Conn) configureRead() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// writePump drains the event queue to the socket and keeps the transport
// alive with pings. Runs until the connection closes.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case event := <-c.Events:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
