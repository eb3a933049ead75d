package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EventHandler processes one inbound event on behalf of a connection.
type EventHandler func(c *Conn, data json.RawMessage)

// Router turns a validated handshake into channel membership and routes
// events among the members of that channel. Faults while handling one
// connection never propagate to the rest of its channel.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

func (rt *Router) Registry() *Registry {
	return rt.registry
}

// Join registers the connection into its session channel and notifies the
// other members. The joining connection does not receive its own notice.
func (rt *Router) Join(c *Conn) {
	rt.registry.Register(c)

	text := "A new guest has joined."
	if c.Role == RoleHost {
		text = "The host has joined."
	}
	rt.broadcast(c, makeEvent(EventSystemNotification, Notification{Text: text}))
}

// Leave unregisters the connection and notifies the remaining members.
// Idempotent: only the removal that actually found the connection
// broadcasts, so duplicate disconnects produce a single notice.
func (rt *Router) Leave(c *Conn) {
	if !rt.registry.Unregister(c.ID) {
		return
	}
	rt.broadcast(c, makeEvent(EventSystemNotification, Notification{Text: "A participant has left the session."}))
}

// HandlerTable is the per-connection dispatch table, built once at join
// time and invoked by the transport's dispatch loop.
func (rt *Router) HandlerTable() map[string]EventHandler {
	return map[string]EventHandler{
		EventChatSend: rt.handleChatSend,
	}
}

// Dispatch routes one decoded event through the handler table. Unknown
// event types earn the sender a private error event, nothing more.
func (rt *Router) Dispatch(handlers map[string]EventHandler, c *Conn, event Event) {
	handler, ok := handlers[event.Type]
	if !ok {
		log.Debug().
			Str("connId", c.ID).
			Str("eventType", event.Type).
			Msg("unknown event type")
		c.Enqueue(makeEvent(EventError, ErrorMessage{Message: fmt.Sprintf("Unknown event type %q", event.Type)}))
		return
	}
	handler(c, event.Data)
}

// handleChatSend relays the payload verbatim to every other channel
// member. No echo back to the sender: the sender renders its own message
// locally. No persistence, no ordering buffer, no content validation.
func (rt *Router) handleChatSend(c *Conn, data json.RawMessage) {
	rt.broadcast(c, Event{Type: EventChatReceive, Data: data})
}

func (rt *Router) broadcast(from *Conn, event Event) {
	for _, member := range rt.registry.MembersOf(from.SessionID, from.ID) {
		member.Enqueue(event)
	}
}

// Serve drives one live connection from join to disconnect: start the
// writer, join the channel, then dispatch inbound events until the
// transport drops. Cleanup runs on every exit path.
func (rt *Router) Serve(c *Conn) {
	c.configureRead()
	go c.writePump()

	rt.Join(c)
	defer c.Close()
	defer rt.Leave(c)

	handlers := rt.HandlerTable()

	for {
		event, err := c.ReadEvent()
		if err != nil {
			if errors.Is(err, ErrMalformedEvent) {
				// Private fault: tell this connection only and keep going.
				c.Enqueue(makeEvent(EventError, ErrorMessage{Message: "Malformed event"}))
				continue
			}
			log.Debug().
				Err(err).
				Str("connId", c.ID).
				Str("sessionId", c.SessionID).
				Msg("connection read loop ended")
			return
		}

		rt.Dispatch(handlers, c, event)
	}
}

// Shutdown force-closes every live connection. Channel membership and
// in-flight events are lost by design; there is nothing to persist.
func (rt *Router) Shutdown() {
	for _, c := range rt.registry.Connections() {
		c.Close()
	}
}
